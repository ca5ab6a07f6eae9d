// Command imgproc runs filter chains over images.
//
// Usage:
//
//	imgproc -in photo.jpg -out edges.png -op grey -op gauss:sigma=1.5 -op sobel
//	imgproc -in shots/ -out out/ -op equalize -workers 4
//	imgproc -in cells.png -out regions.png -seeds "10,10;120,80"
//	imgproc -list
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/imgproc"
	_ "github.com/gogpu/imgproc/backend/native"
	"github.com/gogpu/imgproc/filter"
	"github.com/gogpu/imgproc/gpucore"
	"github.com/gogpu/imgproc/watershed"
)

// imageExts are the extensions picked up in directory mode.
var imageExts = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}

type config struct {
	backend string
	float   bool
	max     int
	steps   []step
	seeds   []watershed.Seed
	reg     *filter.Registry
}

func main() {
	var ops chain
	var (
		in       = flag.String("in", "", "input image or directory")
		out      = flag.String("out", "out.png", "output PNG or directory")
		backendF = flag.String("backend", "auto", "device backend: software, native or auto")
		float    = flag.Bool("float", true, "use float intermediates when the device supports them")
		maxSide  = flag.Int("max", 0, "downscale so the longest side is at most this many pixels (0 keeps the size)")
		seedsF   = flag.String("seeds", "", "watershed seeds as x,y;x,y;... applied after the chain")
		workers  = flag.Int("workers", 2, "parallel images in directory mode")
		list     = flag.Bool("list", false, "list operators and exit")
		verbose  = flag.Bool("v", false, "verbose logging")
		live     = flag.Duration("live", 0, "re-run the chain on the same frame for this long and report tick counts")
	)
	flag.Var(&ops, "op", "operator as name[:k=v,...]; repeatable, applied in order")
	flag.Parse()

	if *verbose {
		imgproc.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	reg := filter.DefaultRegistry()
	if *list {
		listOperators(reg)
		return
	}
	if *in == "" {
		log.Fatalf("missing -in")
	}

	steps, err := ops.resolve(reg)
	if err != nil {
		log.Fatalf("Invalid chain: %v", err)
	}
	seeds, err := parseSeeds(*seedsF)
	if err != nil {
		log.Fatalf("Invalid seeds: %v", err)
	}
	cfg := &config{
		backend: *backendF,
		float:   *float,
		max:     *maxSide,
		steps:   steps,
		seeds:   seeds,
		reg:     reg,
	}
	if cfg.backend == "auto" {
		cfg.backend = ""
	}

	st, err := os.Stat(*in)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	switch {
	case st.IsDir():
		err = runBatch(cfg, *in, *out, *workers)
	case *live > 0:
		err = runLive(cfg, *in, *live)
	default:
		err = runFile(cfg, *in, *out)
	}
	if err != nil {
		log.Fatalf("Failed: %v", err)
	}
}

func listOperators(reg *filter.Registry) {
	for _, name := range reg.Names() {
		d, _ := reg.Lookup(name)
		params := make([]string, 0, len(d.Params))
		for _, p := range d.Params {
			params = append(params, fmt.Sprintf("%s:%s", p.Name, p.Kind))
		}
		fmt.Printf("%-10s %-40s %s\n", d.Name, d.Summary, strings.Join(params, " "))
	}
}

// newEngine opens an engine on the configured backend.
func (c *config) newEngine() (*imgproc.Engine, error) {
	var opts []imgproc.Option
	if c.backend != "" {
		opts = append(opts, imgproc.WithBackend(c.backend))
	}
	if !c.float {
		opts = append(opts, imgproc.WithFormat(gpucore.TextureFormatRGBA8Unorm))
	}
	return imgproc.New(opts...)
}

// decode reads an image file and applies the -max downscale.
func (c *config) decode(path string) (image.Image, image.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, image.Point{}, err
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("decode %s: %w", path, err)
	}
	orig := img.Bounds().Size()
	if c.max > 0 && (orig.X > c.max || orig.Y > c.max) {
		img = imaging.Fit(img, c.max, c.max, imaging.Lanczos)
	}
	imgproc.Logger().Debug("imgproc: decoded", "path", path, "format", format, "size", orig, "scaled", img.Bounds().Size())
	return img, orig, nil
}

// process runs the chain and the optional segmentation on one image.
func (c *config) process(e *imgproc.Engine, img image.Image, orig image.Point) (*image.NRGBA, error) {
	if err := e.Load(img); err != nil {
		return nil, err
	}
	if err := apply(c.reg, c.steps)(e); err != nil {
		return nil, err
	}
	if len(c.seeds) > 0 {
		seeds := scaleSeeds(c.seeds, orig, img.Bounds().Size())
		res, err := filter.Watershed(e, seeds)
		if err != nil {
			return nil, err
		}
		imgproc.Logger().Info("imgproc: segmented", "seeds", len(seeds), "boundary", res.Boundary)
	}
	r, err := e.ReadPixels(image.Rectangle{})
	if err != nil {
		return nil, err
	}
	return r.ToImage(), nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if st, err := os.Stat(path); err == nil {
		imgproc.Logger().Debug("imgproc: wrote", "path", path, "size", humanize.Bytes(uint64(st.Size()))) //nolint:gosec // file sizes are non-negative
	}
	return nil
}

func runFile(c *config, in, out string) error {
	e, err := c.newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	img, orig, err := c.decode(in)
	if err != nil {
		return err
	}
	began := time.Now()
	res, err := c.process(e, img, orig)
	if err != nil {
		return err
	}
	if err := writePNG(out, res); err != nil {
		return err
	}
	b := res.Bounds()
	log.Printf("Saved %s (%dx%d, %s of pixels, %v on %s)", out, b.Dx(), b.Dy(),
		humanize.Bytes(uint64(len(res.Pix))), time.Since(began).Round(time.Millisecond), e.Device().Name())
	return nil
}

// runBatch processes every image of a directory with a bounded pool of
// workers, one engine per image.
func runBatch(c *config, in, out string, workers int) error {
	entries, err := os.ReadDir(in)
	if err != nil {
		return err
	}
	var files []string
	for _, ent := range entries {
		if ent.IsDir() || !slices.Contains(imageExts, strings.ToLower(filepath.Ext(ent.Name()))) {
			continue
		}
		files = append(files, ent.Name())
	}
	if len(files) == 0 {
		return fmt.Errorf("no images in %s", in)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(files)), "processing")
	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for _, name := range files {
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()
			e, err := c.newEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			img, orig, err := c.decode(filepath.Join(in, name))
			if err != nil {
				return err
			}
			res, err := c.process(e, img, orig)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			base := strings.TrimSuffix(name, filepath.Ext(name))
			return writePNG(filepath.Join(out, base+".png"), res)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Printf("Processed %d images into %s", len(files), out)
	return nil
}

// runLive re-runs the chain over the same frame at the live cadence.
func runLive(c *config, in string, d time.Duration) error {
	e, err := c.newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	img, _, err := c.decode(in)
	if err != nil {
		return err
	}
	loop := imgproc.NewLiveLoop(e, imgproc.StaticFrame(img), apply(c.reg, c.steps))
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := loop.Run(ctx); err != nil {
		return err
	}
	log.Printf("Live: %d ticks, %d skipped in %v", loop.Ticks(), loop.Skipped(), d)
	return nil
}

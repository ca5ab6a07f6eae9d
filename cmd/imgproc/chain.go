package main

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/gogpu/imgproc"
	"github.com/gogpu/imgproc/filter"
	"github.com/gogpu/imgproc/watershed"
)

// step is one resolved operator of the chain.
type step struct {
	name   string
	values filter.Values
}

// chain is the ordered operator list given with repeated -op flags.
type chain []string

func (c *chain) String() string { return strings.Join(*c, " ") }

func (c *chain) Set(s string) error {
	*c = append(*c, s)
	return nil
}

// resolve looks up every operator and parses its parameters.
// An operator is written as name or name:k=v,k=v.
func (c chain) resolve(reg *filter.Registry) ([]step, error) {
	steps := make([]step, 0, len(c))
	for _, op := range c {
		name, params, _ := strings.Cut(op, ":")
		d, ok := reg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", filter.ErrUnknownFilter, name)
		}
		v, err := filter.ParseValues(d, params)
		if err != nil {
			return nil, fmt.Errorf("op %q: %w", op, err)
		}
		steps = append(steps, step{name: d.Name, values: v})
	}
	return steps, nil
}

// apply runs the steps in order on e.
func apply(reg *filter.Registry, steps []step) func(*imgproc.Engine) error {
	return func(e *imgproc.Engine) error {
		for _, s := range steps {
			if err := reg.Apply(e, s.name, s.values); err != nil {
				return fmt.Errorf("%s: %w", s.name, err)
			}
		}
		return nil
	}
}

// parseSeeds reads "x,y;x,y;..." into one single-point seed per pair.
func parseSeeds(s string) ([]watershed.Seed, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var seeds []watershed.Seed
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		xs, ys, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("seed %q: want x,y", pair)
		}
		x, err := strconv.Atoi(strings.TrimSpace(xs))
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", pair, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(ys))
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", pair, err)
		}
		seeds = append(seeds, watershed.Point(x, y))
	}
	return seeds, nil
}

// scaleSeeds maps seeds given in source coordinates onto a raster that
// was downscaled from src to dst.
func scaleSeeds(seeds []watershed.Seed, src, dst image.Point) []watershed.Seed {
	if src == dst || src.X == 0 || src.Y == 0 {
		return seeds
	}
	out := make([]watershed.Seed, len(seeds))
	for i, s := range seeds {
		pts := make([]image.Point, len(s.Points))
		for j, p := range s.Points {
			pts[j] = image.Pt(p.X*dst.X/src.X, p.Y*dst.Y/src.Y)
		}
		out[i] = watershed.Seed{Points: pts, Label: s.Label}
	}
	return out
}

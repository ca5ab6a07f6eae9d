package kernel

import (
	"math"
	"testing"
)

func TestGaussianDegenerate(t *testing.T) {
	tests := []struct {
		sigma float64
		size  int
	}{
		{0, 5},
		{-2, 5},
		{1, 0},
		{1, -3},
	}
	for _, tt := range tests {
		k := Gaussian(tt.sigma, tt.size)
		if len(k) != 1 || k[0] != 1 {
			t.Errorf("Gaussian(%v, %d) = %v, want [1]", tt.sigma, tt.size, k)
		}
	}
}

func TestGaussianNormalized(t *testing.T) {
	for _, sigma := range []float64{0.3, 1, 2, 3.5, 10} {
		for _, size := range []int{1, 3, 5, 15, 31} {
			k := Gaussian(sigma, size)
			if sum := Sum(k); math.Abs(sum-1) > 1e-5 {
				t.Errorf("Gaussian(%v, %d) sum = %v, want 1", sigma, size, sum)
			}
		}
	}
}

func TestGaussianSymmetric(t *testing.T) {
	k := Gaussian(1.7, 11)
	n := len(k)
	for i := 0; i < n/2; i++ {
		j := n - 1 - i
		if math.Abs(float64(k[i]-k[j])) > 1e-7 {
			t.Errorf("kernel[%d] = %v != kernel[%d] = %v (asymmetric)", i, k[i], j, k[j])
		}
	}
	c := n / 2
	for i := range k {
		if k[i] > k[c] {
			t.Errorf("kernel[%d] = %v exceeds centre %v", i, k[i], k[c])
		}
	}
}

func TestGaussianEvenSizeRoundsUp(t *testing.T) {
	if got := len(Gaussian(1, 4)); got != 5 {
		t.Errorf("len(Gaussian(1, 4)) = %d, want 5", got)
	}
}

func TestGaussianSize(t *testing.T) {
	tests := []struct {
		sigma float64
		want  int
	}{
		{0, 1},
		{0.5, 5},
		{1.0, 7},
		{2.0, 13},
		{5.0, 31},
	}
	for _, tt := range tests {
		if got := GaussianSize(tt.sigma); got != tt.want {
			t.Errorf("GaussianSize(%v) = %d, want %d", tt.sigma, got, tt.want)
		}
	}
}

func TestBox(t *testing.T) {
	tests := []struct {
		size     int
		wantLen  int
		wantEach float32
	}{
		{0, 1, 1},
		{1, 1, 1},
		{3, 3, 1.0 / 3},
		{4, 5, 0.2},
	}
	for _, tt := range tests {
		k := Box(tt.size)
		if len(k) != tt.wantLen {
			t.Errorf("len(Box(%d)) = %d, want %d", tt.size, len(k), tt.wantLen)
			continue
		}
		for i, v := range k {
			if math.Abs(float64(v-tt.wantEach)) > 1e-7 {
				t.Errorf("Box(%d)[%d] = %v, want %v", tt.size, i, v, tt.wantEach)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	in := []float32{1, 2, 1}
	got := Normalize(in)
	want := []float32{0.25, 0.5, 0.25}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Normalize(%v)[%d] = %v, want %v", in, i, got[i], want[i])
		}
	}
	if in[1] != 2 {
		t.Errorf("Normalize modified its input: %v", in)
	}
}

func TestNormalizeZeroSum(t *testing.T) {
	in := []float32{-1, 0, 1}
	got := Normalize(in)
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("Normalize(%v)[%d] = %v, want %v", in, i, got[i], in[i])
		}
	}
}

func TestOuter(t *testing.T) {
	k := []float32{1, 2, 3}
	got := Outer(k)
	if len(got) != 9 {
		t.Fatalf("len(Outer) = %d, want 9", len(got))
	}
	if got[0*3+2] != 3 || got[2*3+1] != 6 || got[1*3+1] != 4 {
		t.Errorf("Outer(%v) = %v", k, got)
	}

	g := Gaussian(1, 5)
	if sum := Sum(Outer(g)); math.Abs(sum-1) > 1e-5 {
		t.Errorf("Outer(Gaussian) sum = %v, want 1", sum)
	}
}

func TestOdd(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, -1}, {0, 0}, {1, 1}, {2, 3}, {3, 3}, {14, 15},
	}
	for _, tt := range tests {
		if got := Odd(tt.in); got != tt.want {
			t.Errorf("Odd(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCacheGaussian(t *testing.T) {
	c := NewCache(4)
	a := c.Gaussian(2, 13)
	b := c.Gaussian(2, 13)
	if &a[0] != &b[0] {
		t.Error("Cache.Gaussian returned a fresh slice for a repeated request")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	for i := 0; i < 10; i++ {
		c.Gaussian(float64(i)+0.5, 7)
	}
	if c.Len() > 4 {
		t.Errorf("Len() = %d, exceeds max 4", c.Len())
	}
}

func TestCacheSmallSigma(t *testing.T) {
	c := NewCache(4)
	k := c.Gaussian(0.005, 3)
	if len(k) != 3 {
		t.Fatalf("len = %d, want 3", len(k))
	}
	if math.Abs(float64(k[1])-1) > 1e-6 || k[0] > 1e-6 || k[2] > 1e-6 {
		t.Errorf("Gaussian(0.005, 3) = %v, want centred identity", k)
	}
	if id := c.Gaussian(0, 3); len(id) != 1 {
		t.Errorf("Gaussian(0, 3) = %v, want [1]", id)
	}
}

func TestCacheRoundsSigma(t *testing.T) {
	c := NewCache(8)
	want := Gaussian(0.019, 3)
	got := c.Gaussian(0.019, 3)
	for i := range want {
		if math.Abs(float64(want[i]-got[i])) > 1e-7 {
			t.Errorf("Gaussian(0.019, 3)[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if q := quantizeSigma(0.019); q != 2 {
		t.Errorf("quantizeSigma(0.019) = %d, want 2", q)
	}
	if q := quantizeSigma(0.001); q != 1 {
		t.Errorf("quantizeSigma(0.001) = %d, want 1", q)
	}
}

package forecast

import (
	"math/rand/v2"
	"sort"
)

const (
	geneMinValue    = 2
	featureSizeMin  = 1
	featureSizeMax  = 10
	mutationRate    = 0.2
	rouletteEpsilon = 1e-12
)

// Gene [feature_size, fast, slow-fast, signal, bb]; slow хранится как прирост к fast,
// поэтому slow > fast выполняется для любого гена
type Gene [5]int

func GeneFromParams(p FeatureParams) Gene {
	return Gene{p.FeatureSize, p.FastPeriod, p.SlowPeriod - p.FastPeriod, p.SignalPeriod, p.BBPeriod}
}

func (g Gene) Params() FeatureParams {
	return FeatureParams{
		FeatureSize:  roundFeatureSize(g[0]),
		FastPeriod:   g[1],
		SlowPeriod:   g[1] + g[2],
		SignalPeriod: g[3],
		BBPeriod:     g[4],
	}
}

// roundFeatureSize сворачивает значение гена в [featureSizeMin, featureSizeMax)
func roundFeatureSize(v int) int {
	if v < featureSizeMin {
		return featureSizeMin
	}
	return (v-featureSizeMin)%(featureSizeMax-featureSizeMin) + featureSizeMin
}

// Candidate набор параметров и его лучший MSE на тесте
type Candidate struct {
	Params FeatureParams
	Score  float64
}

// Search генетический поиск параметров признаков
type Search struct {
	maxValue int
	rng      *rand.Rand
}

func NewSearch(inputSize int, rng *rand.Rand) *Search {
	return &Search{maxValue: max(inputSize/3, geneMinValue), rng: rng}
}

func (s *Search) randomValue() int {
	return geneMinValue + s.rng.IntN(s.maxValue-geneMinValue+1)
}

func (s *Search) clamp(v int) int {
	return min(max(v, geneMinValue), s.maxValue)
}

func (s *Search) RandomGene() Gene {
	var g Gene
	for i := range g {
		g[i] = s.randomValue()
	}
	return g
}

func (s *Search) RandomParams() FeatureParams {
	return s.RandomGene().Params()
}

func (s *Search) mutate(g *Gene) {
	i := s.rng.IntN(len(g))
	g[i] = s.randomValue()
}

// crossover обменивает пару соседних бит в случайном гене
func (s *Search) crossover(a, b *Gene) {
	i := s.rng.IntN(len(a))
	mask := 3 << s.rng.IntN(3)

	ta := a[i] & mask
	tb := b[i] & mask
	a[i] = s.clamp((a[i] &^ mask) | tb)
	b[i] = s.clamp((b[i] &^ mask) | ta)
}

// roulette чем меньше score, тем выше шанс выбора
func (s *Search) roulette(population []Candidate) Candidate {
	weights := make([]float64, len(population))
	total := 0.0
	for i, c := range population {
		weights[i] = 1 / (c.Score + rouletteEpsilon)
		total += weights[i]
	}

	border := s.rng.Float64() * total
	sum := 0.0
	for i, w := range weights {
		sum += w
		if sum >= border {
			return population[i]
		}
	}
	return population[len(population)-1]
}

// NextGeneration лучший кандидат переходит без изменений, остальные от скрещивания и мутаций
func (s *Search) NextGeneration(population []Candidate, size int) []FeatureParams {
	if len(population) == 0 {
		next := make([]FeatureParams, size)
		for i := range next {
			next[i] = s.RandomParams()
		}
		return next
	}

	sorted := append([]Candidate(nil), population...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })

	seen := map[string]bool{}
	next := make([]FeatureParams, 0, size)
	add := func(p FeatureParams) {
		h := p.Hash()
		if seen[h] || len(next) >= size {
			return
		}
		seen[h] = true
		next = append(next, p)
	}

	add(sorted[0].Params)
	for attempts := 0; len(next) < size && attempts < size*10; attempts++ {
		a := GeneFromParams(s.roulette(sorted).Params)
		b := GeneFromParams(s.roulette(sorted).Params)
		s.crossover(&a, &b)
		if s.rng.Float64() < mutationRate {
			s.mutate(&a)
		}
		if s.rng.Float64() < mutationRate {
			s.mutate(&b)
		}
		add(a.Params())
		add(b.Params())
	}
	for len(next) < size {
		next = append(next, s.RandomParams())
	}
	return next
}

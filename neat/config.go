package neat

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// SearchType selects how mutation probabilities are tuned over a run.
type SearchType string

const (
	SearchPhased     SearchType = "phased"
	SearchBlended    SearchType = "blended"
	SearchComplexify SearchType = "complexify"
)

// ParseSearchType converts a command line or config value into a SearchType.
func ParseSearchType(s string) (SearchType, error) {
	switch st := SearchType(strings.ToLower(strings.TrimSpace(s))); st {
	case SearchPhased, SearchBlended, SearchComplexify:
		return st, nil
	default:
		return "", &ConfigError{Field: "search_type", Reason: fmt.Sprintf("invalid value '%s', must be one of phased, blended, complexify", s)}
	}
}

// Config stores the configuration parameters of a run. A Config is treated as
// immutable once a genome manager or population has been built from it.
type Config struct {
	NEAT         NEATConfig
	Genome       GenomeConfig
	Mutation     MutationConfig
	Mating       MatingConfig
	Reproduction ReproductionConfig
	Species      SpeciesConfig
	Executor     ExecutorConfig
}

// NEATConfig holds run-level parameters.
type NEATConfig struct {
	PopSize          int     `ini:"pop_size"`
	SearchType       string  `ini:"search_type"` // phased, blended, complexify
	GenomeType       string  `ini:"genome_type"` // innov
	FitnessThreshold float64 `ini:"fitness_threshold"`
	PrintEvery       int     `ini:"print_every"`
	NumRuns          int     `ini:"num_runs"`
}

// GenomeConfig holds parameters of the genome encoding and the compatibility metric.
type GenomeConfig struct {
	NumInputs   int    `ini:"num_inputs"` // includes the bias node
	NumOutputs  int    `ini:"num_outputs"`
	NumHidden   int    `ini:"num_hidden"`
	NumTraits   int    `ini:"num_traits"`
	Activation  string `ini:"activation"`
	Aggregation string `ini:"aggregation"`

	DisjointCoeff   float64 `ini:"disjoint_coeff"`
	ExcessCoeff     float64 `ini:"excess_coeff"`
	MutDiffCoeff    float64 `ini:"mutdiff_coeff"`
	CompatNormalize bool    `ini:"compat_normalize"`
	WeightCap       float64 `ini:"weight_cap"`
}

// MutationConfig holds the probabilities of each mutation family.
type MutationConfig struct {
	WeightMutPower     float64 `ini:"weight_mut_power"`
	ColdGaussProb      float64 `ini:"cold_gauss_prob"`
	RecurProb          float64 `ini:"recur_prob"`
	RecurOnlyProb      float64 `ini:"recur_only_prob"`
	NewLinkTries       int     `ini:"newlink_tries"`
	TraitParamMutProb  float64 `ini:"trait_param_mut_prob"`
	TraitMutationPower float64 `ini:"trait_mutation_power"`

	RandomTraitProb  float64 `ini:"mutate_random_trait_prob"`
	LinkTraitProb    float64 `ini:"mutate_link_trait_prob"`
	NodeTraitProb    float64 `ini:"mutate_node_trait_prob"`
	LinkWeightsProb  float64 `ini:"mutate_link_weights_prob"`
	ToggleEnableProb float64 `ini:"mutate_toggle_enable_prob"`
	GeneReenableProb float64 `ini:"mutate_gene_reenable_prob"`
	AddNodeProb      float64 `ini:"mutate_add_node_prob"`
	DeleteNodeProb   float64 `ini:"mutate_delete_node_prob"`
	AddLinkProb      float64 `ini:"mutate_add_link_prob"`
	DeleteLinkProb   float64 `ini:"mutate_delete_link_prob"`

	PhaseStagnationGens int `ini:"phase_stagnation_gens"`
	PhasePruneGens      int `ini:"phase_prune_gens"`
}

// MatingConfig holds crossover parameters.
type MatingConfig struct {
	MultipointProb       float64 `ini:"mate_multipoint_prob"`
	MultipointAvgProb    float64 `ini:"mate_multipoint_avg_prob"`
	SinglepointProb      float64 `ini:"mate_singlepoint_prob"`
	EqualDisjointProb    float64 `ini:"mate_equal_disjoint_prob"`
	ReenableProb         float64 `ini:"mate_reenable_prob"`
	MateOnlyProb         float64 `ini:"mate_only_prob"`
	InterspeciesMateRate float64 `ini:"interspecies_mate_rate"`
}

// ReproductionConfig holds offspring allocation and selection parameters.
type ReproductionConfig struct {
	SurvivalThresh    float64 `ini:"survival_thresh"`
	MutateOnlyProb    float64 `ini:"mutate_only_prob"`
	AgeSignificance   float64 `ini:"age_significance"`
	DropoffAge        int     `ini:"dropoff_age"`
	DeltaCodingAge    int     `ini:"delta_coding_age"`
	ChampionMinSize   int     `ini:"champion_min_size"`
	ChampionCloneProb float64 `ini:"champion_clone_prob"`
}

// SpeciesConfig holds speciation parameters.
type SpeciesConfig struct {
	CompatThreshold float64 `ini:"compat_threshold"`
}

// ExecutorConfig selects and tunes the network execution backend.
type ExecutorConfig struct {
	Backend             string `ini:"backend"` // cpu, lane
	ActivationsPerInput int    `ini:"activations_per_input"`
	Workers             int    `ini:"workers"`    // 0 means GOMAXPROCS
	LaneWidth           int    `ini:"lane_width"` // networks per lane group
}

// DefaultConfig returns the stock parameter set.
func DefaultConfig() *Config {
	return &Config{
		NEAT: NEATConfig{
			PopSize:          1000,
			SearchType:       string(SearchPhased),
			GenomeType:       string(GenomeInnov),
			FitnessThreshold: 0.9999,
			PrintEvery:       10000,
			NumRuns:          1,
		},
		Genome: GenomeConfig{
			NumInputs:     3,
			NumOutputs:    1,
			NumTraits:     1,
			Activation:    "sigmoid",
			Aggregation:   "sum",
			DisjointCoeff: 1.0,
			ExcessCoeff:   1.0,
			MutDiffCoeff:  3.0,
			WeightCap:     8.0,
		},
		Mutation: MutationConfig{
			WeightMutPower:      1.8,
			ColdGaussProb:       0.1,
			RecurProb:           0.05,
			RecurOnlyProb:       0.2,
			NewLinkTries:        20,
			TraitParamMutProb:   0.5,
			TraitMutationPower:  1.0,
			RandomTraitProb:     0.1,
			LinkTraitProb:       0.1,
			NodeTraitProb:       0.1,
			LinkWeightsProb:     0.8,
			ToggleEnableProb:    0.1,
			GeneReenableProb:    0.05,
			AddNodeProb:         0.01,
			DeleteNodeProb:      0.01,
			AddLinkProb:         0.3,
			DeleteLinkProb:      0.3,
			PhaseStagnationGens: 15,
			PhasePruneGens:      5,
		},
		Mating: MatingConfig{
			MultipointProb:       0.6,
			MultipointAvgProb:    0.4,
			SinglepointProb:      0.0,
			EqualDisjointProb:    0.5,
			ReenableProb:         0.25,
			MateOnlyProb:         0.2,
			InterspeciesMateRate: 0.001,
		},
		Reproduction: ReproductionConfig{
			SurvivalThresh:    0.4,
			MutateOnlyProb:    0.25,
			AgeSignificance:   1.0,
			DropoffAge:        15,
			DeltaCodingAge:    20,
			ChampionMinSize:   5,
			ChampionCloneProb: 1.0,
		},
		Species: SpeciesConfig{
			CompatThreshold: 10.0,
		},
		Executor: ExecutorConfig{
			Backend:             "cpu",
			ActivationsPerInput: 10,
			LaneWidth:           64,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file on top of DefaultConfig.
// Keys missing from the file keep their default values.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.Load(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()
	sections := []struct {
		name string
		dst  interface{}
	}{
		{"NEAT", &config.NEAT},
		{"Genome", &config.Genome},
		{"Mutation", &config.Mutation},
		{"Mating", &config.Mating},
		{"Reproduction", &config.Reproduction},
		{"Species", &config.Species},
		{"Executor", &config.Executor},
	}
	for _, s := range sections {
		if err := cfg.Section(s.name).MapTo(s.dst); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	config.NEAT.SearchType = cleanIniString(config.NEAT.SearchType)
	config.NEAT.GenomeType = cleanIniString(config.NEAT.GenomeType)
	config.Genome.Activation = cleanIniString(config.Genome.Activation)
	config.Genome.Aggregation = cleanIniString(config.Genome.Aggregation)
	config.Executor.Backend = cleanIniString(config.Executor.Backend)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// WithSearchType returns a copy of the config using the given search strategy.
func (c *Config) WithSearchType(st SearchType) *Config {
	cp := *c
	cp.NEAT.SearchType = string(st)
	return &cp
}

// WithPopSize returns a copy of the config with a different population size.
func (c *Config) WithPopSize(n int) *Config {
	cp := *c
	cp.NEAT.PopSize = n
	return &cp
}

// Validate checks value ranges and enum values.
func (c *Config) Validate() error {
	if c.NEAT.PopSize <= 0 {
		return &ConfigError{Field: "pop_size", Reason: "must be positive"}
	}
	if _, err := ParseSearchType(c.NEAT.SearchType); err != nil {
		return err
	}
	if GenomeType(c.NEAT.GenomeType) != GenomeInnov {
		return &ConfigError{Field: "genome_type", Reason: fmt.Sprintf("invalid value '%s', must be innov", c.NEAT.GenomeType)}
	}
	if c.NEAT.NumRuns <= 0 {
		return &ConfigError{Field: "num_runs", Reason: "must be positive"}
	}
	if c.NEAT.PrintEvery <= 0 {
		return &ConfigError{Field: "print_every", Reason: "must be positive"}
	}

	g := c.Genome
	if g.NumInputs <= 0 {
		return &ConfigError{Field: "num_inputs", Reason: "must be positive"}
	}
	if g.NumOutputs <= 0 {
		return &ConfigError{Field: "num_outputs", Reason: "must be positive"}
	}
	if g.NumHidden < 0 || g.NumTraits < 0 {
		return &ConfigError{Field: "num_hidden/num_traits", Reason: "cannot be negative"}
	}
	if _, err := GetActivation(g.Activation); err != nil {
		return &ConfigError{Field: "activation", Reason: err.Error()}
	}
	if _, err := GetAggregation(g.Aggregation); err != nil {
		return &ConfigError{Field: "aggregation", Reason: err.Error()}
	}
	if g.DisjointCoeff < 0 || g.ExcessCoeff < 0 || g.MutDiffCoeff < 0 {
		return &ConfigError{Field: "disjoint_coeff/excess_coeff/mutdiff_coeff", Reason: "cannot be negative"}
	}
	if g.WeightCap <= 0 {
		return &ConfigError{Field: "weight_cap", Reason: "must be positive"}
	}

	m := c.Mutation
	probs := map[string]float64{
		"cold_gauss_prob":           m.ColdGaussProb,
		"recur_prob":                m.RecurProb,
		"recur_only_prob":           m.RecurOnlyProb,
		"trait_param_mut_prob":      m.TraitParamMutProb,
		"mutate_random_trait_prob":  m.RandomTraitProb,
		"mutate_link_trait_prob":    m.LinkTraitProb,
		"mutate_node_trait_prob":    m.NodeTraitProb,
		"mutate_link_weights_prob":  m.LinkWeightsProb,
		"mutate_toggle_enable_prob": m.ToggleEnableProb,
		"mutate_gene_reenable_prob": m.GeneReenableProb,
		"mutate_add_node_prob":      m.AddNodeProb,
		"mutate_delete_node_prob":   m.DeleteNodeProb,
		"mutate_add_link_prob":      m.AddLinkProb,
		"mutate_delete_link_prob":   m.DeleteLinkProb,
		"mate_multipoint_prob":      c.Mating.MultipointProb,
		"mate_multipoint_avg_prob":  c.Mating.MultipointAvgProb,
		"mate_singlepoint_prob":     c.Mating.SinglepointProb,
		"mate_equal_disjoint_prob":  c.Mating.EqualDisjointProb,
		"mate_reenable_prob":        c.Mating.ReenableProb,
		"mate_only_prob":            c.Mating.MateOnlyProb,
		"interspecies_mate_rate":    c.Mating.InterspeciesMateRate,
		"survival_thresh":           c.Reproduction.SurvivalThresh,
		"mutate_only_prob":          c.Reproduction.MutateOnlyProb,
		"champion_clone_prob":       c.Reproduction.ChampionCloneProb,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return &ConfigError{Field: name, Reason: "must be between 0 and 1"}
		}
	}
	if m.WeightMutPower < 0 || m.TraitMutationPower < 0 {
		return &ConfigError{Field: "weight_mut_power/trait_mutation_power", Reason: "cannot be negative"}
	}
	if m.NewLinkTries <= 0 {
		return &ConfigError{Field: "newlink_tries", Reason: "must be positive"}
	}
	if m.PhaseStagnationGens <= 0 || m.PhasePruneGens <= 0 {
		return &ConfigError{Field: "phase_stagnation_gens/phase_prune_gens", Reason: "must be positive"}
	}
	mateModes := c.Mating.MultipointProb + c.Mating.MultipointAvgProb + c.Mating.SinglepointProb
	if mateModes <= 0 || mateModes > 1.0+1e-9 {
		return &ConfigError{Field: "mate_*_prob", Reason: fmt.Sprintf("mating mode probabilities must sum to (0, 1], got %g", mateModes)}
	}

	r := c.Reproduction
	if r.AgeSignificance < 0 {
		return &ConfigError{Field: "age_significance", Reason: "cannot be negative"}
	}
	if r.DropoffAge <= 0 || r.DeltaCodingAge <= 0 {
		return &ConfigError{Field: "dropoff_age/delta_coding_age", Reason: "must be positive"}
	}
	if r.ChampionMinSize <= 0 {
		return &ConfigError{Field: "champion_min_size", Reason: "must be positive"}
	}
	if c.Species.CompatThreshold <= 0 {
		return &ConfigError{Field: "compat_threshold", Reason: "must be positive"}
	}

	e := c.Executor
	switch e.Backend {
	case "cpu", "lane":
	default:
		return &ConfigError{Field: "backend", Reason: fmt.Sprintf("invalid value '%s', must be cpu or lane", e.Backend)}
	}
	if e.ActivationsPerInput <= 0 {
		return &ConfigError{Field: "activations_per_input", Reason: "must be positive"}
	}
	if e.Workers < 0 || e.LaneWidth <= 0 {
		return &ConfigError{Field: "workers/lane_width", Reason: "workers cannot be negative, lane_width must be positive"}
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

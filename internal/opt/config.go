package opt

import (
	"errors"
	"fmt"
	"time"
)

// Initial solution strategies.
const (
	InitialGreedy = "greedy"
	InitialRandom = "random"
)

// Config is the tuning surface of the planner. Zero values are replaced by
// DefaultConfig values in Normalize.
type Config struct {
	HorizonDays  int       `yaml:"horizonDays"`
	HorizonStart time.Time `yaml:"horizonStart"`

	MinLayoverMinutes          int `yaml:"minLayoverMinutes"`
	ConnectionMinutes          int `yaml:"connectionMinutes"`
	ProcessingMinutes          int `yaml:"processingMinutes"`
	PickupMinutes              int `yaml:"pickupMinutes"`
	SameContinentPromiseHours  int `yaml:"sameContinentPromiseHours"`
	CrossContinentPromiseHours int `yaml:"crossContinentPromiseHours"`
	// Expected airborne time per leg, used to judge routing efficiency.
	SameContinentFlightHours  float64  `yaml:"sameContinentFlightHours"`
	CrossContinentFlightHours float64  `yaml:"crossContinentFlightHours"`
	HeadquartersIATA          []string `yaml:"headquarters"`

	MaxIntermediateAirports int `yaml:"maxIntermediateAirports"`
	MaxLegOptions           int `yaml:"maxLegOptions"`
	CandidateLimit          int `yaml:"candidateLimit"`
	HopPenaltyMinutes       int `yaml:"hopPenaltyMinutes"`

	DestructionRatio            float64 `yaml:"destructionRatio"`
	DiversifiedDestructionRatio float64 `yaml:"diversifiedDestructionRatio"`
	MinRemoval                  int     `yaml:"minRemoval"`
	MaxRemoval                  int     `yaml:"maxRemoval"`
	PoolExpansionMax            int     `yaml:"poolExpansionMax"`
	PoolExpansionMin            int     `yaml:"poolExpansionMin"`
	RegretK                     int     `yaml:"regretK"`
	RegretDynamicLimit          int     `yaml:"regretDynamicLimit"`

	InitialTemperature float64 `yaml:"initialTemperature"`
	CoolingRate        float64 `yaml:"coolingRate"`
	CoolingSegment     int     `yaml:"coolingSegment"`
	SegmentSize        int     `yaml:"segmentSize"`
	ReactionFactor     float64 `yaml:"reactionFactor"`
	MinOperatorWeight  float64 `yaml:"minOperatorWeight"`

	StagnationThreshold    int           `yaml:"stagnationThreshold"`
	RestartThreshold       int           `yaml:"restartThreshold"`
	SignificantImprovement float64       `yaml:"significantImprovement"`
	MaxRestarts            int           `yaml:"maxRestarts"`
	MaxIterations          int           `yaml:"maxIterations"`
	NoAcceptLimit          int           `yaml:"noAcceptLimit"`
	TimeBudget             time.Duration `yaml:"timeBudget"`
	SnapshotEvery          int           `yaml:"snapshotEvery"`

	InitialStrategy         string  `yaml:"initialStrategy"`
	RandomAssignProbability float64 `yaml:"randomAssignProbability"`

	Scores  ScoreConfig  `yaml:"scores"`
	Weights WeightConfig `yaml:"weights"`
}

// ScoreConfig holds the tiered operator rewards.
type ScoreConfig struct {
	NewBest             float64 `yaml:"newBest"`
	LargeImprovement    float64 `yaml:"largeImprovement"`
	ModerateImprovement float64 `yaml:"moderateImprovement"`
	SmallImprovement    float64 `yaml:"smallImprovement"`
	AcceptedAnnealing   float64 `yaml:"acceptedAnnealing"`
	Rejected            float64 `yaml:"rejected"`
	// Relative gains over the current weight separating the tiers.
	LargeThreshold    float64 `yaml:"largeThreshold"`
	ModerateThreshold float64 `yaml:"moderateThreshold"`
}

// WeightConfig holds the coefficients of the solution weight.
type WeightConfig struct {
	Shipment          float64 `yaml:"shipment"`
	Order             float64 `yaml:"order"`
	Unit              float64 `yaml:"unit"`
	OnTime            float64 `yaml:"onTime"`
	Margin            float64 `yaml:"margin"`
	MarginCapHours    float64 `yaml:"marginCapHours"`
	Continental       float64 `yaml:"continental"`
	FlightUtilisation float64 `yaml:"flightUtilisation"`
	StoreUtilisation  float64 `yaml:"storeUtilisation"`
	DeliveryHour      float64 `yaml:"deliveryHour"`
	Complexity        float64 `yaml:"complexity"`
	LowUtilisation    float64 `yaml:"lowUtilisation"`
	LowOnTimeRate     float64 `yaml:"lowOnTimeRate"`
	LowOnTimeFactor   float64 `yaml:"lowOnTimeFactor"`
	HighOnTimeRate    float64 `yaml:"highOnTimeRate"`
	HighOnTimeFactor  float64 `yaml:"highOnTimeFactor"`
	VolumeBonusUnits  int     `yaml:"volumeBonusUnits"`
	VolumeBonusFactor float64 `yaml:"volumeBonusFactor"`
}

func DefaultConfig() Config {
	return Config{
		HorizonDays:                 4,
		MinLayoverMinutes:           60,
		ConnectionMinutes:           120,
		ProcessingMinutes:           120,
		PickupMinutes:               120,
		SameContinentPromiseHours:   48,
		CrossContinentPromiseHours:  72,
		SameContinentFlightHours:    12,
		CrossContinentFlightHours:   24,
		HeadquartersIATA:            []string{"SPIM", "EBCI", "UBBB"},
		MaxIntermediateAirports:     8,
		MaxLegOptions:               6,
		CandidateLimit:              5,
		HopPenaltyMinutes:           180,
		DestructionRatio:            0.15,
		DiversifiedDestructionRatio: 0.35,
		MinRemoval:                  5,
		MaxRemoval:                  100,
		PoolExpansionMax:            200,
		PoolExpansionMin:            50,
		RegretK:                     3,
		RegretDynamicLimit:          40,
		InitialTemperature:          100,
		CoolingRate:                 0.98,
		CoolingSegment:              100,
		SegmentSize:                 50,
		ReactionFactor:              0.3,
		MinOperatorWeight:           0.05,
		StagnationThreshold:         100,
		RestartThreshold:            300,
		SignificantImprovement:      0.001,
		MaxRestarts:                 3,
		MaxIterations:               1000,
		NoAcceptLimit:               300,
		SnapshotEvery:               50,
		InitialStrategy:             InitialGreedy,
		RandomAssignProbability:     0.3,
		Scores: ScoreConfig{
			NewBest:             33,
			LargeImprovement:    20,
			ModerateImprovement: 13,
			SmallImprovement:    9,
			AcceptedAnnealing:   5,
			Rejected:            1,
			LargeThreshold:      0.05,
			ModerateThreshold:   0.01,
		},
		Weights: WeightConfig{
			Shipment:          1500,
			Order:             1000,
			Unit:              10,
			OnTime:            500,
			Margin:            50,
			MarginCapHours:    24,
			Continental:       200,
			FlightUtilisation: 100,
			StoreUtilisation:  50,
			DeliveryHour:      2,
			Complexity:        100,
			LowUtilisation:    0.1,
			LowOnTimeRate:     0.8,
			LowOnTimeFactor:   0.85,
			HighOnTimeRate:    0.95,
			HighOnTimeFactor:  1.05,
			VolumeBonusUnits:  1000,
			VolumeBonusFactor: 1.02,
		},
	}
}

// Normalize fills zero fields from DefaultConfig.
func (c Config) Normalize() Config {
	d := DefaultConfig()
	setInt := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	setFloat := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	setInt(&c.HorizonDays, d.HorizonDays)
	setInt(&c.MinLayoverMinutes, d.MinLayoverMinutes)
	setInt(&c.ConnectionMinutes, d.ConnectionMinutes)
	setInt(&c.ProcessingMinutes, d.ProcessingMinutes)
	setInt(&c.PickupMinutes, d.PickupMinutes)
	setInt(&c.SameContinentPromiseHours, d.SameContinentPromiseHours)
	setInt(&c.CrossContinentPromiseHours, d.CrossContinentPromiseHours)
	setFloat(&c.SameContinentFlightHours, d.SameContinentFlightHours)
	setFloat(&c.CrossContinentFlightHours, d.CrossContinentFlightHours)
	if c.HeadquartersIATA == nil {
		c.HeadquartersIATA = d.HeadquartersIATA
	}
	setInt(&c.MaxIntermediateAirports, d.MaxIntermediateAirports)
	setInt(&c.MaxLegOptions, d.MaxLegOptions)
	setInt(&c.CandidateLimit, d.CandidateLimit)
	setInt(&c.HopPenaltyMinutes, d.HopPenaltyMinutes)
	setFloat(&c.DestructionRatio, d.DestructionRatio)
	setFloat(&c.DiversifiedDestructionRatio, d.DiversifiedDestructionRatio)
	setInt(&c.MinRemoval, d.MinRemoval)
	setInt(&c.MaxRemoval, d.MaxRemoval)
	setInt(&c.PoolExpansionMax, d.PoolExpansionMax)
	setInt(&c.PoolExpansionMin, d.PoolExpansionMin)
	setInt(&c.RegretK, d.RegretK)
	setInt(&c.RegretDynamicLimit, d.RegretDynamicLimit)
	setFloat(&c.InitialTemperature, d.InitialTemperature)
	setFloat(&c.CoolingRate, d.CoolingRate)
	setInt(&c.CoolingSegment, d.CoolingSegment)
	setInt(&c.SegmentSize, d.SegmentSize)
	setFloat(&c.ReactionFactor, d.ReactionFactor)
	setFloat(&c.MinOperatorWeight, d.MinOperatorWeight)
	setInt(&c.StagnationThreshold, d.StagnationThreshold)
	setInt(&c.RestartThreshold, d.RestartThreshold)
	setFloat(&c.SignificantImprovement, d.SignificantImprovement)
	if c.MaxRestarts < 0 {
		c.MaxRestarts = 0
	} else if c.MaxRestarts == 0 {
		c.MaxRestarts = d.MaxRestarts
	}
	setInt(&c.MaxIterations, d.MaxIterations)
	setInt(&c.NoAcceptLimit, d.NoAcceptLimit)
	setInt(&c.SnapshotEvery, d.SnapshotEvery)
	if c.InitialStrategy == "" {
		c.InitialStrategy = d.InitialStrategy
	}
	setFloat(&c.RandomAssignProbability, d.RandomAssignProbability)
	if c.Scores == (ScoreConfig{}) {
		c.Scores = d.Scores
	}
	if c.Weights == (WeightConfig{}) {
		c.Weights = d.Weights
	}
	return c
}

// Validate rejects settings the search cannot run with.
func (c Config) Validate() error {
	if c.InitialStrategy != InitialGreedy && c.InitialStrategy != InitialRandom {
		return fmt.Errorf("invalid initial strategy: %s", c.InitialStrategy)
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		return errors.New("coolingRate must be in (0,1)")
	}
	if c.DestructionRatio <= 0 || c.DestructionRatio > 1 {
		return errors.New("destructionRatio must be in (0,1]")
	}
	if c.DiversifiedDestructionRatio < c.DestructionRatio || c.DiversifiedDestructionRatio > 1 {
		return errors.New("diversifiedDestructionRatio must be in [destructionRatio,1]")
	}
	if c.MinRemoval > c.MaxRemoval {
		return fmt.Errorf("minRemoval %d exceeds maxRemoval %d", c.MinRemoval, c.MaxRemoval)
	}
	if c.RandomAssignProbability > 1 {
		return errors.New("randomAssignProbability must be <= 1")
	}
	if c.ReactionFactor > 1 {
		return errors.New("reactionFactor must be <= 1")
	}
	if c.RestartThreshold < c.StagnationThreshold {
		return errors.New("restartThreshold must not be below stagnationThreshold")
	}
	if c.PoolExpansionMin > c.PoolExpansionMax {
		return errors.New("poolExpansionMin exceeds poolExpansionMax")
	}
	return nil
}

func (c Config) promiseMinutes(sameContinent bool) int {
	if sameContinent {
		return c.SameContinentPromiseHours * 60
	}
	return c.CrossContinentPromiseHours * 60
}

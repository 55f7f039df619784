package params

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
)

// fee market policy
// default values:
var (
	CongestionThreshold = 0            // Active work units (including the candidate) at which a lane becomes congested
	RecentTxCount       = 5            // Capacity of the recency window
	MaxActiveTxs        = 5            // Maximum simultaneously active work units per lane
	CUToPower           = 50000.0      // Capacity units that double a congested rate
	MinimumBaseFeeRate  = uint64(5000) // Fee-rate floor and uncongested baseline
	InitialReservedFee  = uint64(0)    // Reserved fee of a freshly created market
	CompoundingBase     = 1.06         // Reserved-fee growth per compounding period
	CompoundingScale    = 1000000.0    // Capacity units per compounding period
)

// workload, scheduling & output file path
var (
	LaneNum = 1 // \# of independent execution lanes

	InjectSpeed   = 2000   // The speed of transaction injection (work units per second)
	TotalDataSize = 160000 // The total number of work units to be injected
	TxBatchSize   = 16000  // The supervisor reads a batch of work units then drains the lanes

	MaxSchedulerRetries = 32  // Admission attempts per work unit before it is dropped
	FeeBumpLimit        = 2.0 // Highest resubmission rate as a multiple of the first offered rate
	ExpectationWindow   = 16  // Scheduler steps averaged into a lane's expected fee rate

	ExpDataRootDir     = "expTest"                     // The root dir where the experimental data should locate.
	DataWrite_path     = ExpDataRootDir + "/result/"   // Measurement data result output path
	DatabaseWrite_path = ExpDataRootDir + "/database/" // database write path

	DatasetFile    = `./selectedTxs_300K.csv` // The raw BlockTransaction data path
	FeeRateUnitWei = int64(1000000)           // Wei per fee-rate unit when converting gas prices
	Scenario       = ""                       // Synthetic scenario; empty replays DatasetFile
	Seed           = int64(1)                 // Seed of the synthetic generator

	LogLevel    = "info" // trace, debug, info, warn, error, crit
	MetricsAddr = ""     // Prometheus listen address; empty disables the endpoint
)

// read from file
type globalConfig struct {
	CongestionThreshold int     `json:"CongestionThreshold"`
	RecentTxCount       int     `json:"RecentTxCount"`
	MaxActiveTxs        int     `json:"MaxActiveTxs"`
	CUToPower           float64 `json:"CUToPower"`
	MinimumBaseFeeRate  uint64  `json:"MinimumBaseFeeRate"`
	InitialReservedFee  uint64  `json:"InitialReservedFee"`
	CompoundingBase     float64 `json:"CompoundingBase"`
	CompoundingScale    float64 `json:"CompoundingScale"`

	LaneNum       int `json:"LaneNum"`
	InjectSpeed   int `json:"InjectSpeed"`
	TotalDataSize int `json:"TotalDataSize"`
	TxBatchSize   int `json:"TxBatchSize"`

	MaxSchedulerRetries int     `json:"MaxSchedulerRetries"`
	FeeBumpLimit        float64 `json:"FeeBumpLimit"`
	ExpectationWindow   int     `json:"ExpectationWindow"`

	ExpDataRootDir string `json:"ExpDataRootDir"`
	DatasetFile    string `json:"DatasetFile"`
	FeeRateUnitWei int64  `json:"FeeRateUnitWei"`
	Scenario       string `json:"Scenario"`
	Seed           int64  `json:"Seed"`

	LogLevel    string `json:"LogLevel"`
	MetricsAddr string `json:"MetricsAddr"`
}

// current returns the parameters in effect, so that keys missing from the
// file keep their values
func current() globalConfig {
	return globalConfig{
		CongestionThreshold: CongestionThreshold,
		RecentTxCount:       RecentTxCount,
		MaxActiveTxs:        MaxActiveTxs,
		CUToPower:           CUToPower,
		MinimumBaseFeeRate:  MinimumBaseFeeRate,
		InitialReservedFee:  InitialReservedFee,
		CompoundingBase:     CompoundingBase,
		CompoundingScale:    CompoundingScale,
		LaneNum:             LaneNum,
		InjectSpeed:         InjectSpeed,
		TotalDataSize:       TotalDataSize,
		TxBatchSize:         TxBatchSize,
		MaxSchedulerRetries: MaxSchedulerRetries,
		FeeBumpLimit:        FeeBumpLimit,
		ExpectationWindow:   ExpectationWindow,
		ExpDataRootDir:      ExpDataRootDir,
		DatasetFile:         DatasetFile,
		FeeRateUnitWei:      FeeRateUnitWei,
		Scenario:            Scenario,
		Seed:                Seed,
		LogLevel:            LogLevel,
		MetricsAddr:         MetricsAddr,
	}
}

// ReadConfigFile reads configurations from a JSON file such as paramsConfig.json
func ReadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	config := current()
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("unmarshalling config file %s: %w", path, err)
	}

	log.Debug("Loaded configuration", "path", path, "config", fmt.Sprintf("%+v", config))

	// fee market params
	CongestionThreshold = config.CongestionThreshold
	RecentTxCount = config.RecentTxCount
	MaxActiveTxs = config.MaxActiveTxs
	CUToPower = config.CUToPower
	MinimumBaseFeeRate = config.MinimumBaseFeeRate
	InitialReservedFee = config.InitialReservedFee
	CompoundingBase = config.CompoundingBase
	CompoundingScale = config.CompoundingScale

	// workload & scheduling params
	LaneNum = config.LaneNum
	InjectSpeed = config.InjectSpeed
	TotalDataSize = config.TotalDataSize
	TxBatchSize = config.TxBatchSize
	MaxSchedulerRetries = config.MaxSchedulerRetries
	FeeBumpLimit = config.FeeBumpLimit
	ExpectationWindow = config.ExpectationWindow

	// data file params
	SetExpDataRootDir(config.ExpDataRootDir)
	DatasetFile = config.DatasetFile
	FeeRateUnitWei = config.FeeRateUnitWei
	Scenario = config.Scenario
	Seed = config.Seed

	LogLevel = config.LogLevel
	MetricsAddr = config.MetricsAddr
	return nil
}

// SetExpDataRootDir moves every output path under dir
func SetExpDataRootDir(dir string) {
	ExpDataRootDir = dir
	DataWrite_path = ExpDataRootDir + "/result/"
	DatabaseWrite_path = ExpDataRootDir + "/database/"
}

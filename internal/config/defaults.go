package config

const (
	defaultDataDir = "~/.local/share/taggenius"
	defaultLogDir  = "~/.local/share/taggenius/logs"

	defaultLLMBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel          = "gpt-4o-mini"
	defaultLLMTimeoutSeconds = 60

	defaultLexiconBaseURL        = "http://localhost:48624"
	defaultLexiconTimeoutSeconds = 5

	defaultJobPollInterval    = 2
	defaultErrorRetryInterval = 5
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 300
	defaultProgressStride     = 1

	defaultTagCount = 1

	defaultLogLevel  = "info"
	defaultLogFormat = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Lexicon: Lexicon{
			BaseURL:        defaultLexiconBaseURL,
			TimeoutSeconds: defaultLexiconTimeoutSeconds,
		},
		Workflow: Workflow{
			JobPollInterval:    defaultJobPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			ProgressStride:     defaultProgressStride,
		},
		Tagging: Tagging{
			SubGenres:   defaultTagCount,
			EnergyVibes: defaultTagCount,
			Situations:  defaultTagCount,
			Components:  defaultTagCount,
			TimePeriods: defaultTagCount,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

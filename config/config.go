package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"prod"`
	Port   string `env:"PORT" envDefault:"8080"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// groq or gemini
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"groq"`

	GroqAPIKey  string `env:"GROQ_API_KEY" envDefault:""`
	GroqBaseURL string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel   string `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`

	GeminiAPIKey string `env:"GEMINI_API_KEY" envDefault:""`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`

	BrowserUseAPIKey  string `env:"BROWSER_USE_API_KEY" envDefault:""`
	BrowserUseBaseURL string `env:"BROWSER_USE_BASE_URL" envDefault:"https://api.browser-use.com/api/v2"`
	BrowserUseRPS     int    `env:"BROWSER_USE_RPS" envDefault:"5"`

	AirbnbSkillID  string `env:"AIRBNB_SKILL_ID" envDefault:"442a08cb-f012-4266-a927-67437632fd1c"`
	BookingSkillID string `env:"BOOKING_SKILL_ID" envDefault:"3311e66a-9dc6-403d-93d6-f20e78701bec"`
	HeadoutSkillID string `env:"HEADOUT_SKILL_ID" envDefault:"ab1257b7-f66e-4a29-b2a3-eba52f5b3719"`
	KlookSkillID   string `env:"KLOOK_SKILL_ID" envDefault:"ebf4715e-4bf3-4263-8bf2-af82aeef3829"`
	GeocodeSkillID string `env:"GEOCODE_SKILL_ID" envDefault:"da022610-68fd-443f-a856-a109dc7b8243"`

	TripCacheTTLSeconds int `env:"TRIP_CACHE_TTL_SECONDS" envDefault:"604800"`

	MaxActivitiesPerSegment int `env:"MAX_ACTIVITIES_PER_SEGMENT" envDefault:"20"`
	MinActivitiesPerSegment int `env:"MIN_ACTIVITIES_PER_SEGMENT" envDefault:"5"`

	WorkflowMaxAttempts int `env:"WORKFLOW_MAX_ATTEMPTS" envDefault:"3"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

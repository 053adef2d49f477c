package main

type BrowserConfig struct {
	Headless        bool   `json:"headless"`
	RemoteURL       string `json:"remote_url"`
	RotateUserAgent bool   `json:"rotate_user_agent"`
	CookiePath      string `json:"cookie_path"`
}

type ValuationConfig struct {
	TargetURL              string `json:"target_url"`
	DeadlineSeconds        int    `json:"deadline_seconds"`
	ChallengeBudgetSeconds int    `json:"challenge_budget_seconds"`
	MaxSessions            int64  `json:"max_sessions"`
	RetryOnce              bool   `json:"retry_once"`
}

type Config struct {
	Port      int             `json:"port"`
	Database  string          `json:"database"`
	Browser   BrowserConfig   `json:"browser"`
	Valuation ValuationConfig `json:"valuation"`
}

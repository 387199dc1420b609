package config

import (
    "os"
    "strconv"
    "time"
)

// LoginRateConfig controls the redis-backed limiter that guards the login
// endpoint against credential stuffing.  Attempts are counted per client IP
// inside a fixed window; once MaxAttempts is reached further logins are
// rejected until the window expires.
type LoginRateConfig struct {
    Enabled     bool
    MaxAttempts int
    Window      time.Duration
    Prefix      string
}

// LoadLoginRateConfig reads the limiter settings from the environment,
// applying safe defaults and clamping nonsensical values.
func LoadLoginRateConfig() LoginRateConfig {
    cfg := LoginRateConfig{
        Enabled:     envBool("LOGIN_RATE_ENABLED", true),
        MaxAttempts: envInt("LOGIN_RATE_MAX_ATTEMPTS", 10),
        Window:      envDur("LOGIN_RATE_WINDOW", time.Minute),
        Prefix:      envStr("LOGIN_RATE_PREFIX", "login"),
    }
    if cfg.MaxAttempts < 1 {
        cfg.MaxAttempts = 1
    }
    if cfg.Window <= 0 {
        cfg.Window = time.Minute
    }
    return cfg
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    switch v {
    case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
        return true
    case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}

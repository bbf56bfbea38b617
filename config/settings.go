package config

import (
	"os"
	"strings"
	"time"
)

// Operational knobs for the import/promotion pipeline. All overridable
// from env; defaults match the deployed service.

const (
	defaultMaxUploadBytes        = 10 << 20
	defaultMaxLogoBytes          = 5 << 20
	defaultTaskSoftTimeoutMin    = 25
	defaultTaskHardTimeoutMin    = 30
	defaultPromotionRetentionDay = 90
)

// MaxUploadBytes is the workbook intake ceiling; larger files are rejected
// before any job is created.
func MaxUploadBytes() int64 {
	return int64(intFromEnv("MAX_UPLOAD_BYTES", defaultMaxUploadBytes))
}

// MaxLogoBytes caps brand logo images, which are much smaller than
// workbooks.
func MaxLogoBytes() int64 {
	return int64(intFromEnv("MAX_LOGO_BYTES", defaultMaxLogoBytes))
}

// TaskSoftTimeout is the point after which a worker stops picking up the
// next brand sheet and finalizes the job as failed.
func TaskSoftTimeout() time.Duration {
	return time.Duration(intFromEnv("TASK_SOFT_TIMEOUT_MINUTES", defaultTaskSoftTimeoutMin)) * time.Minute
}

// TaskHardTimeout bounds one task execution end to end.
func TaskHardTimeout() time.Duration {
	return time.Duration(intFromEnv("TASK_HARD_TIMEOUT_MINUTES", defaultTaskHardTimeoutMin)) * time.Minute
}

// PromotionRetentionDays: staging rows under a MIGRATED version older than
// this are eligible for garbage collection (cmd/staging-gc).
func PromotionRetentionDays() int {
	return intFromEnv("PROMOTION_RETENTION_DAYS", defaultPromotionRetentionDay)
}

// BrandPrefixes returns the brand display prefixes stripped from vehicle
// names during extraction, e.g. "현대 아반떼" -> "아반떼".
func BrandPrefixes() []string {
	if v := strings.TrimSpace(os.Getenv("BRAND_PREFIXES")); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return []string{"현대", "기아", "제네시스", "쉐보레", "르노코리아", "KG모빌리티", "Hyundai", "Kia", "Genesis"}
}

func EnvBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}

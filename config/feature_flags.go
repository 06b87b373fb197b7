package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles with gradual per-user rollout.
// The planner keeps working with every flag off: AI synthesis degrades to the
// deterministic strategy, caching degrades to the database, and the jobs
// simply do not run.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100). Users are assigned by hash of their ID,
	// so a user stays in their bucket across restarts.
	RolloutPercent int
}

// Predefined feature flag names.
const (
	// === Planner Features ===
	FeatureAISynthesis     = "planner.ai_synthesis"     // reasoning service as primary strategy
	FeatureDeferredSurface = "planner.deferred_surface" // show deferred-overdue tasks in results

	// === Cache Features ===
	FeatureScheduleCache = "cache.schedule" // Redis read-through for daily schedules
	FeatureProgressCache = "cache.progress" // Redis read-through for progress views

	// === Worker Features ===
	FeatureNightlyReplan   = "worker.nightly_replan" // pre-dawn plan generation
	FeatureStreakReminders = "worker.streak_risk"    // evening streak-risk sweep

	// === Gamification Features ===
	FeatureBadges = "gamification.badges" // badge awards on completion
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureAISynthesis] = &Feature{
		Name:           FeatureAISynthesis,
		Description:    "Use the reasoning service as the primary plan strategy",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureDeferredSurface] = &Feature{
		Name:           FeatureDeferredSurface,
		Description:    "Surface deferred-overdue tasks in plan results",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureScheduleCache] = &Feature{
		Name:           FeatureScheduleCache,
		Description:    "Cache daily schedule reads in Redis",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureProgressCache] = &Feature{
		Name:           FeatureProgressCache,
		Description:    "Cache progress reads in Redis",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNightlyReplan] = &Feature{
		Name:           FeatureNightlyReplan,
		Description:    "Generate every user's plan before the day starts",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureStreakReminders] = &Feature{
		Name:           FeatureStreakReminders,
		Description:    "Evening sweep for streaks about to break",
		Enabled:        true,
		RolloutPercent: 50, // Gradual rollout
	}

	ff.features[FeatureBadges] = &Feature{
		Name:           FeatureBadges,
		Description:    "Award badges on streak and XP milestones",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_PLANNER_AI_SYNTHESIS=false
// Example: FEATURE_WORKER_STREAK_RISK=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "planner.ai_synthesis" -> "FEATURE_PLANNER_AI_SYNTHESIS"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is on at all, ignoring rollout bucketing.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	return ok && feature.Enabled && feature.RolloutPercent > 0
}

// IsEnabledFor checks if a feature is enabled for the given user.
func (ff *FeatureFlags) IsEnabledFor(featureName, userID string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if userID != "" {
		if overrides, ok := ff.userOverrides[userID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok || !feature.Enabled {
		return false
	}

	if feature.RolloutPercent < 100 && userID != "" {
		return isInRollout(userID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func isInRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	bucket := int(h.Sum32() % 100)
	return bucket < percent
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}

package usage

import (
	"github.com/creatorhub-platform/creatorhub/internal/subscription"
)

// Unlimited is the sentinel limit for features with no daily cap.
// It is distinct from 0, which means "never allowed on this plan".
const Unlimited = -1

// planLimits is the static (plan, feature) -> daily limit table. It is
// code-defined on purpose: limits change with deploys, not with user data.
var planLimits = map[subscription.Plan]map[Feature]int{
	subscription.PlanFree: {
		FeatureVideoUploads:       3,
		FeatureAICaptions:         5,
		FeatureAIMusic:            2,
		FeatureYouTubeChannels:    1,
		FeatureYouTubeOperations:  10,
		FeatureAIThumbnails:       4,
		FeatureAIScripts:          3,
		FeatureAITrends:           5,
		FeatureAISEO:              5,
		FeatureAIHashtags:         10,
		FeatureAISpeechToText:     3,
		FeatureAITextToSpeech:     3,
		FeatureAIVoiceCloning:     1,
		FeatureAIDubbing:          1,
		FeatureAIBackgroundRemove: 5,
		FeatureAIImageEnhance:     5,
		FeatureAITextSummarizer:   5,
		FeatureAIShortsPackages:   1,
	},
	subscription.PlanPro: {
		FeatureVideoUploads:       Unlimited,
		FeatureAICaptions:         Unlimited,
		FeatureAIMusic:            200,
		FeatureYouTubeChannels:    10,
		FeatureYouTubeOperations:  Unlimited,
		FeatureAIThumbnails:       Unlimited,
		FeatureAIScripts:          Unlimited,
		FeatureAITrends:           Unlimited,
		FeatureAISEO:              Unlimited,
		FeatureAIHashtags:         Unlimited,
		FeatureAISpeechToText:     100,
		FeatureAITextToSpeech:     100,
		FeatureAIVoiceCloning:     20,
		FeatureAIDubbing:          20,
		FeatureAIBackgroundRemove: Unlimited,
		FeatureAIImageEnhance:     Unlimited,
		FeatureAITextSummarizer:   Unlimited,
		FeatureAIShortsPackages:   30,
	},
}

// LimitFor returns the daily limit for the given plan and feature.
// Unknown plans fall back to the free tier.
func LimitFor(plan subscription.Plan, f Feature) int {
	limits, ok := planLimits[plan]
	if !ok {
		limits = planLimits[subscription.PlanFree]
	}
	limit, ok := limits[f]
	if !ok {
		// Every canonical feature has a table entry; a miss means f
		// bypassed ParseFeature. Deny rather than default-allow.
		return 0
	}
	return limit
}

package usage

import (
	"errors"
	"fmt"
)

// Feature identifies a trackable, rate-limited action. The set is closed:
// anything outside it is rejected at the API boundary, never silently
// mapped to a default counter.
type Feature string

const (
	FeatureVideoUploads       Feature = "video_uploads"
	FeatureAICaptions         Feature = "ai_captions"
	FeatureAIMusic            Feature = "ai_music"
	FeatureYouTubeChannels    Feature = "youtube_channels"
	FeatureYouTubeOperations  Feature = "youtube_operations"
	FeatureAIThumbnails       Feature = "ai_thumbnails"
	FeatureAIScripts          Feature = "ai_scripts"
	FeatureAITrends           Feature = "ai_trends"
	FeatureAISEO              Feature = "ai_seo"
	FeatureAIHashtags         Feature = "ai_hashtags"
	FeatureAISpeechToText     Feature = "ai_speech_to_text"
	FeatureAITextToSpeech     Feature = "ai_text_to_speech"
	FeatureAIVoiceCloning     Feature = "ai_voice_cloning"
	FeatureAIDubbing          Feature = "ai_dubbing"
	FeatureAIBackgroundRemove Feature = "ai_background_removal"
	FeatureAIImageEnhance     Feature = "ai_image_enhancement"
	FeatureAITextSummarizer   Feature = "ai_text_summarizer"
	FeatureAIShortsPackages   Feature = "ai_shorts_packages"
)

// ErrUnknownFeature is returned for usage types outside the closed feature set.
var ErrUnknownFeature = errors.New("invalid usage type")

var allFeatures = []Feature{
	FeatureVideoUploads,
	FeatureAICaptions,
	FeatureAIMusic,
	FeatureYouTubeChannels,
	FeatureYouTubeOperations,
	FeatureAIThumbnails,
	FeatureAIScripts,
	FeatureAITrends,
	FeatureAISEO,
	FeatureAIHashtags,
	FeatureAISpeechToText,
	FeatureAITextToSpeech,
	FeatureAIVoiceCloning,
	FeatureAIDubbing,
	FeatureAIBackgroundRemove,
	FeatureAIImageEnhance,
	FeatureAITextSummarizer,
	FeatureAIShortsPackages,
}

// aliases maps legacy request spellings onto their canonical feature key.
// The frontend historically sent singular forms for a few usage types.
var aliases = map[string]Feature{
	"ai_caption":         FeatureAICaptions,
	"ai_thumbnail":       FeatureAIThumbnails,
	"ai_script":          FeatureAIScripts,
	"ai_hashtag":         FeatureAIHashtags,
	"speech_to_text":     FeatureAISpeechToText,
	"text_to_speech":     FeatureAITextToSpeech,
	"background_removal": FeatureAIBackgroundRemove,
	"image_enhancement":  FeatureAIImageEnhance,
}

var featureSet = func() map[Feature]struct{} {
	m := make(map[Feature]struct{}, len(allFeatures))
	for _, f := range allFeatures {
		m[f] = struct{}{}
	}
	return m
}()

// Features returns all canonical feature keys in a stable order.
func Features() []Feature {
	out := make([]Feature, len(allFeatures))
	copy(out, allFeatures)
	return out
}

// ParseFeature resolves a request string to a canonical feature key.
// Alias resolution happens here, once, at the boundary.
func ParseFeature(s string) (Feature, error) {
	if f, ok := aliases[s]; ok {
		return f, nil
	}
	f := Feature(s)
	if _, ok := featureSet[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFeature, s)
	}
	return f, nil
}

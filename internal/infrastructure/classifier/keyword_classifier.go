package classifier

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"insiden/internal/bootstrap/logging"
	"insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
)

// keywordRule maps keyword markers to a category with a fixed confidence.
// Rules are evaluated in order; the first match wins.
type keywordRule struct {
	Keywords   []string
	Category   incident.IncidentCategory
	Confidence float64
}

// fallbackRules is the deterministic built-in heuristic used when no model
// artifact is available. Keep it total: the default rule below catches
// everything the keyword rules miss.
var fallbackRules = []keywordRule{
	{Keywords: []string{"jatuh", "fall"}, Category: incident.CategoryKPCS, Confidence: 0.6},
	{Keywords: []string{"obat", "med"}, Category: incident.CategoryKNC, Confidence: 0.55},
}

var fallbackDefault = keywordRule{Category: incident.CategoryKTC, Confidence: 0.5}

// KeywordClassifier assigns accreditation categories by keyword scan. The
// rule set either comes from a trained-model export (TOML artifact) or from
// the built-in heuristic. Immutable after construction, safe for concurrent
// use.
type KeywordClassifier struct {
	rules        []keywordRule
	defaultRule  keywordRule
	modelVersion string
}

var _ ports.Classifier = (*KeywordClassifier)(nil)

// New loads the model artifact at modelPath once. A missing or unreadable
// artifact is a normal, handled condition: it is logged and the classifier
// degrades to the built-in heuristic with fallbackVersion as its label.
func New(ctx context.Context, modelPath string, fallbackVersion string) *KeywordClassifier {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "classifier"))

	c := &KeywordClassifier{
		rules:        fallbackRules,
		defaultRule:  fallbackDefault,
		modelVersion: fallbackVersion,
	}

	path := strings.TrimSpace(modelPath)
	if path == "" {
		logging.Warn(logCtx, "no model path configured, using fallback heuristic")
		return c
	}

	artifact, err := loadArtifact(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Warn(logCtx, "model artifact not found, using fallback heuristic",
				slog.String("model_path", path))
		} else {
			logging.Error(logCtx, "failed to load model artifact, using fallback heuristic",
				slog.String("model_path", path), slog.Any("err", errs.Loggable(err)))
		}
		return c
	}

	c.rules = artifact.rules
	if artifact.hasDefault {
		c.defaultRule = artifact.defaultRule
	}
	c.modelVersion = artifact.version
	if c.modelVersion == "" {
		// Derive a label from the artifact name, mirroring how a trained
		// model without a self-reported version is labeled.
		c.modelVersion = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	logging.Info(logCtx, "model artifact loaded",
		slog.String("model_path", path),
		slog.String("model_version", c.modelVersion),
		slog.Int("rules", len(c.rules)))
	return c
}

// Predict is total and deterministic: identical (text, metadata) always
// yields an identical result within one process lifetime, for any input
// including the empty string. Metadata is accepted for forward compatibility
// with richer models and currently not consulted.
func (c *KeywordClassifier) Predict(_ context.Context, text string, _ map[string]string) ports.Prediction {
	lower := strings.ToLower(text)

	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if keyword != "" && strings.Contains(lower, keyword) {
				return ports.Prediction{
					Category:     rule.Category,
					Confidence:   rule.Confidence,
					ModelVersion: c.modelVersion,
				}
			}
		}
	}

	return ports.Prediction{
		Category:     c.defaultRule.Category,
		Confidence:   c.defaultRule.Confidence,
		ModelVersion: c.modelVersion,
	}
}

// ModelVersion returns the label reported with every prediction.
func (c *KeywordClassifier) ModelVersion() string {
	return c.modelVersion
}

type artifactRule struct {
	Keywords   []string `toml:"keywords"`
	Category   string   `toml:"category"`
	Confidence float64  `toml:"confidence"`
}

type artifactFile struct {
	Version string         `toml:"version"`
	Rules   []artifactRule `toml:"rules"`
	Default *artifactRule  `toml:"default"`
}

type loadedArtifact struct {
	version     string
	rules       []keywordRule
	defaultRule keywordRule
	hasDefault  bool
}

func loadArtifact(path string) (loadedArtifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return loadedArtifact{}, err
	}

	var file artifactFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return loadedArtifact{}, errs.Wrap(err, "parse model artifact")
	}
	if len(file.Rules) == 0 {
		return loadedArtifact{}, errs.Wrap(os.ErrInvalid, "model artifact has no rules")
	}

	out := loadedArtifact{version: strings.TrimSpace(file.Version)}
	for _, rule := range file.Rules {
		converted, err := convertRule(rule)
		if err != nil {
			return loadedArtifact{}, err
		}
		out.rules = append(out.rules, converted)
	}
	if file.Default != nil {
		converted, err := convertRule(*file.Default)
		if err != nil {
			return loadedArtifact{}, err
		}
		out.defaultRule = converted
		out.hasDefault = true
	}
	return out, nil
}

func convertRule(rule artifactRule) (keywordRule, error) {
	category, err := incident.ParseCategory(rule.Category)
	if err != nil {
		return keywordRule{}, errs.Wrap(err, "model artifact rule")
	}

	keywords := make([]string, 0, len(rule.Keywords))
	for _, raw := range rule.Keywords {
		keyword := strings.ToLower(strings.TrimSpace(raw))
		if keyword != "" {
			keywords = append(keywords, keyword)
		}
	}

	confidence := rule.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return keywordRule{Keywords: keywords, Category: category, Confidence: confidence}, nil
}

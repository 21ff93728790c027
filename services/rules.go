package services

import (
	"regexp"
	"strings"

	"tstrend/config"
)

// Rule asserts Label when Pattern matches the lower-cased item text.
type Rule struct {
	Label   string
	Pattern *regexp.Regexp
}

// RuleTable is evaluated in order; every matching rule contributes its label.
type RuleTable []Rule

// Capability labels.
const (
	LabelDocker       = "docker"
	LabelPip          = "pip"
	LabelConda        = "conda"
	LabelMultivariate = "multivariate"
	LabelUnivariate   = "univariate"
	LabelExogenous    = "exogenous"
	LabelSOTA         = "sota"
	LabelGPU          = "gpu"
)

// CapabilityRules detect environment, data shape and benchmark claims.
func CapabilityRules() RuleTable {
	return RuleTable{
		{LabelDocker, regexp.MustCompile(`(docker|container|dockerfile|docker-compose)`)},
		{LabelPip, regexp.MustCompile(`(pip install|requirements\.txt|setup\.py)`)},
		{LabelConda, regexp.MustCompile(`(conda install|environment\.yml)`)},
		{LabelMultivariate, regexp.MustCompile(`(multivariate|multi-variate|mts|multiple series)`)},
		{LabelUnivariate, regexp.MustCompile(`(univariate|single series)`)},
		{LabelExogenous, regexp.MustCompile(`(exogenous|covariates|external variables|control variables|forcing)`)},
		{LabelSOTA, regexp.MustCompile(`(state-of-the-art|sota|state of the art|outperform|beats|benchmark)`)},
		{LabelGPU, regexp.MustCompile(`(gpu|cuda|accelerator)`)},
	}
}

// MethodRules classify the learning paradigm and model family.
func MethodRules() RuleTable {
	return RuleTable{
		{"Supervised", keywords("supervised", "forecasting", "classification", "regression")},
		{"Unsupervised", keywords("unsupervised", "anomaly detection", "clustering", "outlier", "self-supervised")},
		{"RL", keywords("reinforcement learning", "rl", "gym", "agent", "reward")},
		{"Deep Learning", keywords("deep learning", "neural network", "lstm", "rnn", "cnn", "transformer", "diffusion", "attention")},
		{"Foundation Model", keywords("foundation model", "pretrained", "llm", "zero-shot", "few-shot", "generative")},
		{"Statistical", keywords("arima", "ets", "prophet", "statistical", "bayesian", "stochastic")},
		{"Code Available", keywords("github.com", "huggingface.co", "code available")},
	}
}

// RulesFor returns the table registered for set.
func RulesFor(set config.RuleSet) RuleTable {
	if set == config.RulesMethods {
		return MethodRules()
	}
	return CapabilityRules()
}

// Labels returns every label the table asserts, in table order.
func (t RuleTable) Labels() []string {
	out := make([]string, 0, len(t))
	for _, r := range t {
		out = append(out, r.Label)
	}
	return out
}

// keywords compiles plain substrings into one alternation.
func keywords(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile("(" + strings.Join(quoted, "|") + ")")
}

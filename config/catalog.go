package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tstrend/models"
)

// AdvancedCatalog covers tasks, architectures, data traits and venues, querying
// all three sources per category.
func AdvancedCatalog() []models.Category {
	return []models.Category{
		{
			Name:        "1. Forecasting (General)",
			GitHub:      "time series forecasting",
			HuggingFace: "time-series-forecasting",
			ArXiv:       `all:"time series forecasting"`,
		},
		{
			Name:        "2. Probabilistic Forecasting",
			GitHub:      "probabilistic time series forecasting OR quantile regression",
			HuggingFace: "probabilistic-forecasting",
			ArXiv:       `all:"probabilistic time series" OR all:"uncertainty estimation"`,
		},
		{
			Name:        "3. Anomaly Detection",
			GitHub:      "time series anomaly detection",
			HuggingFace: "anomaly-detection",
			ArXiv:       `all:"time series anomaly detection"`,
		},
		{
			Name:        "4. Foundation Models",
			GitHub:      "time series foundation model OR large time series model OR zero-shot forecasting",
			HuggingFace: "time-series-foundation-model",
			ArXiv:       `all:"time series" AND (all:"foundation model" OR all:"large language model")`,
		},
		{
			Name:        "5. Transformers & Attention",
			GitHub:      "time series transformer OR temporal attention",
			HuggingFace: "transformer",
			ArXiv:       `all:"time series transformer" OR all:"temporal attention"`,
		},
		{
			Name:        "6. GNN / Spatial-Temporal",
			GitHub:      "spatiotemporal time series OR graph neural network time series",
			HuggingFace: "graph-machine-learning",
			ArXiv:       `all:"spatiotemporal" OR all:"graph neural network" AND all:"time series"`,
		},
		{
			Name:        "7. Multivariate & Exogenous",
			GitHub:      "multivariate time series forecasting OR exogenous variables",
			HuggingFace: "multivariate",
			ArXiv:       `all:"multivariate time series" OR all:"covariates"`,
		},
		{
			Name:        "8. Finance & Trading",
			GitHub:      "financial time series OR algorithmic trading reinforcement learning",
			HuggingFace: "financial-time-series",
			ArXiv:       `all:"financial time series" OR all:"stock prediction"`,
		},
		{
			Name:        "9. Conferences (NeurIPS/ICML/ITISE)",
			GitHub:      "topic:neurips-2024 OR topic:icml-2024 OR topic:time-series-conference",
			HuggingFace: "arxiv",
			ArXiv:       `all:"time series" AND (all:"NeurIPS" OR all:"ICML" OR all:"ICLR" OR all:"ITISE" OR all:"ISF")`,
		},
		{
			Name:        "10. Competition Solutions (Kaggle etc.)",
			GitHub:      "topic:kaggle-solution OR topic:time-series-competition",
			HuggingFace: "competition",
			ArXiv:       `all:"time series competition" OR all:"forecasting competition"`,
		},
	}
}

// MethodsCatalog groups results by task and domain for methodology tagging.
func MethodsCatalog() []models.Category {
	return []models.Category{
		{
			Name:        "1. Forecasting",
			GitHub:      "time series forecasting",
			HuggingFace: "time-series-forecasting",
			ArXiv:       `all:"time series forecasting"`,
		},
		{
			Name:        "2. Anomaly Detection",
			GitHub:      "time series anomaly detection",
			HuggingFace: "anomaly-detection",
			ArXiv:       `all:"time series anomaly detection"`,
		},
		{
			Name:        "3. Classification",
			GitHub:      "time series classification",
			HuggingFace: "time-series-classification",
			ArXiv:       `all:"time series classification"`,
		},
		{
			Name:        "4. Foundation Models",
			GitHub:      "time series foundation model OR large time series model",
			HuggingFace: "time-series-foundation-model",
			ArXiv:       `all:"time series" AND (all:"foundation model" OR all:"large language model" OR all:"pretrained")`,
		},
		{
			Name:        "5. Transformers",
			GitHub:      "time series transformer",
			HuggingFace: "transformer time-series",
			ArXiv:       `all:"time series transformer"`,
		},
		{
			Name:        "6. Generation",
			GitHub:      "time series generation synthetic",
			HuggingFace: "synthetic-time-series",
			ArXiv:       `all:"time series generation" OR all:"synthetic time series"`,
		},
		{
			Name:        "7. Preprocessing",
			GitHub:      "time series preprocessing imputation",
			HuggingFace: "imputation",
			ArXiv:       `all:"time series imputation" OR all:"missing value"`,
		},
		{
			Name:        "8. Finance",
			GitHub:      "financial time series quantitative",
			HuggingFace: "financial-time-series",
			ArXiv:       `all:"financial time series" OR all:"quantitative trading"`,
		},
	}
}

// QueryCatalog builds a single-category catalog that sends the same free-text
// query to every source.
func QueryCatalog(query string) []models.Category {
	return []models.Category{{
		Name:        query,
		GitHub:      query,
		HuggingFace: query,
		ArXiv:       fmt.Sprintf(`all:"%s"`, query),
	}}
}

type catalogFile struct {
	Categories []models.Category `yaml:"categories"`
}

// LoadCatalog reads a YAML catalog of the form:
//
//	categories:
//	  - name: Forecasting
//	    github: time series forecasting
//	    huggingface: time-series-forecasting
//	    arxiv: all:"time series forecasting"
func LoadCatalog(path string) ([]models.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}

	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("catalog: %q defines no categories", path)
	}
	for i, c := range f.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("catalog: category #%d has no name", i+1)
		}
		if c.GitHub == "" && c.HuggingFace == "" && c.ArXiv == "" {
			return nil, fmt.Errorf("catalog: category %q has no queries", c.Name)
		}
	}
	return f.Categories, nil
}

package domain

import "time"

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Stage names the pipeline step an item error was raised in.
type Stage string

const (
	StageParse     Stage = "parse"
	StageValidate  Stage = "validate"
	StageVariation Stage = "variation"
	StageCategory  Stage = "category"
	StageImage     Stage = "image"
	StageSink      Stage = "sink"
)

// ItemError is a per-item problem keyed by SKU or barcode.
type ItemError struct {
	Key     string `json:"key"`
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// RunSummary is the user-visible outcome of an import run.
type RunSummary struct {
	Parsed               int `json:"parsed"`
	Processed            int `json:"processed"`
	Created              int `json:"created"`
	Updated              int `json:"updated"`
	Unchanged            int `json:"unchanged"`
	Skipped              int `json:"skipped"`
	Failed               int `json:"failed"`
	SimpleProducts       int `json:"simpleProducts"`
	VariationGroups      int `json:"variationGroups"`
	VariationConflicts   int `json:"variationConflicts"`
	CategoriesExplicit   int `json:"categoriesExplicit"`
	CategoriesSimilarity int `json:"categoriesSimilarity"`
	CategoriesByType     int `json:"categoriesByType"`
	CategoriesNone       int `json:"categoriesNone"`
	ImagesSucceeded      int `json:"imagesSucceeded"`
	ImagesFailed         int `json:"imagesFailed"`
	ZeroImageProducts    int `json:"zeroImageProducts"`

	Errors   []ItemError `json:"errors,omitempty"`
	Warnings []ItemError `json:"warnings,omitempty"`
}

// ImportRun is one recorded execution of the import pipeline.
type ImportRun struct {
	ID         string      `json:"id"`
	SourceKey  string      `json:"sourceKey"`
	FileName   string      `json:"fileName"`
	Status     RunStatus   `json:"status"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
	Message    string      `json:"message,omitempty"`
	Summary    *RunSummary `json:"summary,omitempty"`
}

// Source is a registered supplier feed.
type Source struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

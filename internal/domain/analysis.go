package domain

// TechnicalContext explains the background of a story.
type TechnicalContext struct {
	Background      string
	KeyTechnologies []string
}

// Impact describes who is affected and how much.
type Impact struct {
	ImmediateImpact string
	LongTermImpact  string
	AffectedSectors []string
	// ImpactLevel ranges from 1 (minor) to 5 (transformative).
	ImpactLevel int
}

// Guidance holds audience specific recommendations.
type Guidance struct {
	ForDevelopers  string
	ForResearchers string
	ForBusiness    string
	ActionItems    []string
}

// Resource is a related link suggested by the model.
type Resource struct {
	Title string
	URL   string
	Type  string
}

// DeepAnalysis is the optional second-pass enrichment of a high scoring review.
type DeepAnalysis struct {
	TechnicalContext TechnicalContext
	KeyInsights      []string
	Impact           Impact
	Guidance         *Guidance
	Controversies    []string
	OpenQuestions    []string
	RelatedResources []Resource
}

// DeepReview pairs a review with its deep analysis.
type DeepReview struct {
	Review   ArticleReview
	Analysis DeepAnalysis
}

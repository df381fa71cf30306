package pricing

// TokenEstimator provides token count estimation for text content.
type TokenEstimator interface {
	CountTokens(text string) int
}

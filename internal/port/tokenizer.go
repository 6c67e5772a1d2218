package port

// TokenCounter counts model tokens for budget arithmetic.
type TokenCounter interface {
	CountTokens(text string) int
}

package evaluation

// OverallScore combines the price, technical, and qualification scores under
// the configured weights. A disqualified bid scores 0 outright, whatever its
// other components say.
func OverallScore(price, technical float64, qual QualificationResult, cfg Config) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	if qual.Status == StatusDisqualified {
		return 0, nil
	}

	return cfg.PriceWeight*price +
		cfg.TechnicalWeight*technical +
		cfg.QualificationWeight*qual.Score, nil
}

package domain

// FeatureVector is the fixed-length numeric projection of a model's static
// attributes used by the predictive stage. It lives only for the duration
// of a single match run.
type FeatureVector []float64

// NumFeatures is the length of every derived FeatureVector.
const NumFeatures = 8

// Features derives the 8-slot feature vector from the model's attributes.
// The layout is fixed and order-sensitive: five direct normalizations
// followed by three derived composites.
func Features(attr Attributes) FeatureVector {
	return FeatureVector{
		attr.Offense / 100,
		attr.Defense / 100,
		attr.Agility / 100,
		attr.Strategy / 100,
		attr.Endurance / 100,
		(attr.Offense + attr.Agility) / 200,
		(attr.Defense + attr.Endurance) / 200,
		attr.Strategy / 100,
	}
}

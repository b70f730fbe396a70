package models

// Category is the behavioral outcome assigned to a trial by the classifier
type Category string

const (
	// CategoryNone marks a trial that matched no rule and is excluded from outcome analysis
	CategoryNone Category = ""

	CategoryEarlyLick      Category = "early lick"
	CategoryOmission       Category = "omission"
	CategoryCorrectLeft    Category = "correct left"
	CategoryCorrectRight   Category = "correct right"
	CategoryIncorrectLeft  Category = "incorrect left"
	CategoryIncorrectRight Category = "incorrect right"

	// Spout sampling outcomes
	CategorySampledLeft  Category = "sampled left"
	CategorySampledRight Category = "sampled right"

	// Free licking and free pressing outcomes
	CategoryLickLeft  Category = "lick left"
	CategoryLickRight Category = "lick right"
)

// TwoChoiceCategories lists the two-choice outcomes in display order
var TwoChoiceCategories = []Category{
	CategoryEarlyLick,
	CategoryOmission,
	CategoryCorrectLeft,
	CategoryCorrectRight,
	CategoryIncorrectLeft,
	CategoryIncorrectRight,
}

var knownCategories = map[Category]bool{
	CategoryNone:           true,
	CategoryEarlyLick:      true,
	CategoryOmission:       true,
	CategoryCorrectLeft:    true,
	CategoryCorrectRight:   true,
	CategoryIncorrectLeft:  true,
	CategoryIncorrectRight: true,
	CategorySampledLeft:    true,
	CategorySampledRight:   true,
	CategoryLickLeft:       true,
	CategoryLickRight:      true,
}

// IsValid reports whether c is a known category (including CategoryNone)
func (c Category) IsValid() bool {
	return knownCategories[c]
}

// IsCorrect reports whether c is a rewarded choice
func (c Category) IsCorrect() bool {
	return c == CategoryCorrectLeft || c == CategoryCorrectRight
}

// IsIncorrect reports whether c is a punished choice
func (c Category) IsIncorrect() bool {
	return c == CategoryIncorrectLeft || c == CategoryIncorrectRight
}

// String returns the category label, or "unclassified" for CategoryNone
func (c Category) String() string {
	if c == CategoryNone {
		return "unclassified"
	}
	return string(c)
}

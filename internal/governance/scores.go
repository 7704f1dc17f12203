package governance

import "fmt"

// Category is one of the five evaluation categories of a contributor's work.
type Category int

const (
	CodeQuality Category = iota
	Documentation
	Testing
	Innovation
	Community
)

// Categories lists every category in canonical order.
var Categories = []Category{CodeQuality, Documentation, Testing, Innovation, Community}

const MaxCategoryScore = 100

func (c Category) String() string {
	switch c {
	case CodeQuality:
		return "code_quality"
	case Documentation:
		return "documentation"
	case Testing:
		return "testing"
	case Innovation:
		return "innovation"
	case Community:
		return "community"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Weight is the category's percentage share of the composite score.
func (c Category) Weight() uint64 {
	switch c {
	case CodeQuality:
		return 25
	case Documentation, Testing, Innovation:
		return 20
	case Community:
		return 15
	default:
		return 0
	}
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Scores holds one 0..100 score per category.
type Scores struct {
	CodeQuality   uint8 `yaml:"code_quality" json:"code_quality"`
	Documentation uint8 `yaml:"documentation" json:"documentation"`
	Testing       uint8 `yaml:"testing" json:"testing"`
	Innovation    uint8 `yaml:"innovation" json:"innovation"`
	Community     uint8 `yaml:"community" json:"community"`
}

func (s Scores) Get(c Category) uint8 {
	switch c {
	case CodeQuality:
		return s.CodeQuality
	case Documentation:
		return s.Documentation
	case Testing:
		return s.Testing
	case Innovation:
		return s.Innovation
	case Community:
		return s.Community
	default:
		return 0
	}
}

func (s *Scores) Set(c Category, v uint8) {
	switch c {
	case CodeQuality:
		s.CodeQuality = v
	case Documentation:
		s.Documentation = v
	case Testing:
		s.Testing = v
	case Innovation:
		s.Innovation = v
	case Community:
		s.Community = v
	}
}

func (s Scores) Validate() error {
	for _, c := range Categories {
		if v := s.Get(c); v > MaxCategoryScore {
			return fmt.Errorf("%w: %s is %d", ErrInvalidScore, c, v)
		}
	}
	return nil
}

// Composite is the weighted sum of the category scores, rounded down.
func (s Scores) Composite() uint64 {
	var sum uint64
	for _, c := range Categories {
		sum += uint64(s.Get(c)) * c.Weight()
	}
	return sum / 100
}

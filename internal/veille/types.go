package veille

// DailyQuestion is the question of the day shown on the dashboard.
type DailyQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Theme    string `json:"theme"`
}

// NewsItem is one AI news headline.
type NewsItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
	URL     string `json:"url"`
	Date    string `json:"date"`
}

// Expert is a person worth following on a topic.
type Expert struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
	Topic        string `json:"topic"`
	URL          string `json:"url"`
}

// Outcome status values, named after Promise.allSettled results.
const (
	StatusFulfilled = "fulfilled"
	StatusRejected  = "rejected"
)

// Outcome is the settled result of one dashboard branch.
type Outcome[T any] struct {
	Status string `json:"status"`
	Value  T      `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

func settle[T any](v T, err error) Outcome[T] {
	if err != nil {
		return Outcome[T]{Status: StatusRejected, Error: err.Error()}
	}
	return Outcome[T]{Status: StatusFulfilled, Value: v}
}

// Dashboard gathers the three veille widgets. Each field settles
// independently of the others.
type Dashboard struct {
	Question Outcome[*DailyQuestion] `json:"question"`
	News     Outcome[[]NewsItem]     `json:"news"`
	Experts  Outcome[[]Expert]       `json:"experts"`
}

package domain

// Category is a classification tag attached to an email.
// An email can carry several categories at once.
type Category string

const (
	CategoryUrgent      Category = "urgent"
	CategoryImportant   Category = "important"
	CategoryWork        Category = "work"
	CategoryPersonal    Category = "personal"
	CategoryPromotions  Category = "promotions"
	CategorySocial      Category = "social"
	CategoryUpdates     Category = "updates"
	CategoryFinance     Category = "finance"
	CategoryNewsletters Category = "newsletters"
	CategorySpam        Category = "spam"
)

// DefaultCategory is assigned when no keyword pattern matches.
const DefaultCategory = CategoryUpdates

// AllCategories lists every category in priority order. The order matters:
// a query mentioning several categories resolves to the first one listed here.
var AllCategories = []Category{
	CategoryUrgent,
	CategoryImportant,
	CategoryWork,
	CategoryPersonal,
	CategoryPromotions,
	CategorySocial,
	CategoryUpdates,
	CategoryFinance,
	CategoryNewsletters,
	CategorySpam,
}

// ParseCategory returns the category matching s, if any.
func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// KeywordTable maps a category to the phrases that select it.
type KeywordTable map[Category][]string

// DefaultKeywordTable returns the built-in categorization phrases.
// Matching is case-insensitive substring matching, so multi-word
// phrases like "deadline today" are allowed.
func DefaultKeywordTable() KeywordTable {
	return KeywordTable{
		CategoryUrgent:      {"urgent", "asap", "immediately", "critical", "emergency", "deadline today", "action required", "time sensitive"},
		CategoryImportant:   {"important", "priority", "attention", "required", "must", "essential", "crucial"},
		CategoryWork:        {"meeting", "project", "report", "team", "office", "colleague", "manager", "deadline", "review", "schedule", "presentation", "client", "invoice", "contract"},
		CategoryPersonal:    {"family", "friend", "birthday", "dinner", "weekend", "vacation", "trip", "personal", "mom", "dad", "brother", "sister"},
		CategoryPromotions:  {"sale", "discount", "offer", "deal", "promo", "save", "limited time", "exclusive", "free shipping", "coupon", "clearance", "%off", "buy now"},
		CategorySocial:      {"linkedin", "twitter", "facebook", "instagram", "notification", "mentioned", "tagged", "comment", "follow", "connection", "invite"},
		CategoryUpdates:     {"update", "notification", "alert", "reminder", "confirm", "verify", "account", "password", "security", "change"},
		CategoryFinance:     {"bank", "payment", "invoice", "receipt", "transaction", "statement", "credit", "debit", "transfer", "balance", "tax", "investment"},
		CategoryNewsletters: {"newsletter", "subscribe", "unsubscribe", "weekly", "digest", "roundup", "edition", "issue"},
		CategorySpam:        {"winner", "congratulations", "claim", "prize", "lottery", "inheritance", "nigerian", "prince", "million dollars"},
	}
}

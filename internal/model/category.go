package model

// Category groups tasks into a named list shown in the sidebar.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	IsDefault bool   `json:"isDefault"`
}

const (
	CategoryDaily  = "daily"
	CategoryShared = "shared"
)

const (
	NewCategoryName  = "New List"
	NewCategoryColor = "bg-slate-500"
)

// IsProtected reports whether the category can never be deleted.
func IsProtected(id string) bool {
	return id == CategoryDaily || id == CategoryShared
}

// DefaultCategories returns a fresh copy of the lists every new install starts with.
func DefaultCategories() []Category {
	return []Category{
		{ID: CategoryDaily, Name: "Daily List", Icon: "☀️", Color: "bg-blue-500", IsDefault: true},
		{ID: "work", Name: "Work List", Icon: "💼", Color: "bg-indigo-500", IsDefault: true},
		{ID: "personal", Name: "Personal List", Icon: "🏠", Color: "bg-emerald-500", IsDefault: true},
		{ID: "other", Name: "Other List", Icon: "📋", Color: "bg-orange-500", IsDefault: true},
		{ID: CategoryShared, Name: "Shared with Me", Icon: "👥", Color: "bg-purple-500", IsDefault: true},
	}
}

// CategoryIcons is the glyph set new lists draw their icon from.
var CategoryIcons = []string{
	"📁", "🎯", "⭐", "🔥", "💡", "🎨", "🎵", "📖", "🏃", "🍎",
	"✈️", "🎮", "☀️", "💼", "🏠", "📋", "👥", "🎒", "💪", "🛒",
	"📧", "📞", "🎬", "🍽️", "✏️", "📚", "🌟", "🚀", "💻", "🎁",
}

package core

// OtherCategory receives synthetic goal allocation expenses.
const OtherCategory = "other"

// Category is static reference data; users cannot edit the registry.
type Category struct {
	Key    string          `json:"key"`
	Name   string          `json:"name"`
	NameEn string          `json:"nameEn"`
	Color  string          `json:"color"`
	Icon   string          `json:"icon"`
	Type   TransactionType `json:"type"`
}

var registry = []Category{
	{Key: "food", Name: "طعام", NameEn: "Food", Color: "#f59e0b", Icon: "🍔", Type: Expense},
	{Key: "transport", Name: "مواصلات", NameEn: "Transport", Color: "#3b82f6", Icon: "🚗", Type: Expense},
	{Key: "bills", Name: "فواتير", NameEn: "Bills", Color: "#ef4444", Icon: "📄", Type: Expense},
	{Key: "entertainment", Name: "ترفيه", NameEn: "Entertainment", Color: "#8b5cf6", Icon: "🎮", Type: Expense},
	{Key: "health", Name: "صحة", NameEn: "Health", Color: "#10b981", Icon: "💊", Type: Expense},
	{Key: "shopping", Name: "تسوق", NameEn: "Shopping", Color: "#ec4899", Icon: "🛍️", Type: Expense},
	{Key: OtherCategory, Name: "أخرى", NameEn: "Other", Color: "#6b7280", Icon: "📦", Type: Expense},
	{Key: "salary", Name: "راتب", NameEn: "Salary", Color: "#059669", Icon: "💰", Type: Income},
	{Key: "freelance", Name: "فريلانس", NameEn: "Freelance", Color: "#0891b2", Icon: "💻", Type: Income},
	{Key: "gift", Name: "هدية", NameEn: "Gift", Color: "#d946ef", Icon: "🎁", Type: Income},
}

var registryIndex = func() map[string]int {
	idx := make(map[string]int, len(registry))
	for i, c := range registry {
		idx[c.Key] = i
	}
	return idx
}()

// LookupCategory returns the registry entry for key.
func LookupCategory(key string) (Category, bool) {
	i, ok := registryIndex[key]
	if !ok {
		return Category{}, false
	}
	return registry[i], true
}

// CategoryOrFallback returns the entry for key, or the "other" entry for unknown keys.
func CategoryOrFallback(key string) Category {
	if c, ok := LookupCategory(key); ok {
		return c
	}
	c, _ := LookupCategory(OtherCategory)
	return c
}

// Categories returns the registry in declaration order.
func Categories() []Category {
	return append([]Category(nil), registry...)
}

// CategoriesOf returns the categories of one type in declaration order.
func CategoriesOf(t TransactionType) []Category {
	var out []Category
	for _, c := range registry {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

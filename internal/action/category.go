package action

// DefaultCategory is the reserved queue name for uncategorized actions.
const DefaultCategory = "_default_"

// renamedDefault is what a user-declared category called DefaultCategory
// becomes, so it cannot collide with the reserved queue.
const renamedDefault = "custom" + DefaultCategory

// NormalizeCategory maps a declared category name onto a queue name.
// The empty name means uncategorized.
func NormalizeCategory(name string) string {
	switch name {
	case "":
		return DefaultCategory
	case DefaultCategory:
		return renamedDefault
	default:
		return name
	}
}

// Category is the routing envelope produced upstream of the engine. It is
// never stored; the router unwraps it into a queue name and a Container.
type Category interface {
	// Route returns the destination queue name and the container to deliver.
	Route() (string, Container)
	category() // Sealed
}

// Uncategorized routes its container to DefaultCategory.
type Uncategorized struct {
	Container Container
}

// WithCategory routes its container to the named queue.
type WithCategory struct {
	Name      string
	Container Container
}

func (Uncategorized) category() {}
func (WithCategory) category()  {}

// Route implements Category.
func (u Uncategorized) Route() (string, Container) {
	return DefaultCategory, u.Container
}

// Route implements Category.
func (w WithCategory) Route() (string, Container) {
	return w.Name, w.Container
}

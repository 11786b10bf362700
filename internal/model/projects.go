package model

// Reserved project names.
const (
	ProjectNone        = "None"
	ProjectOutOfOffice = "Out-of-Office"
	ProjectLunch       = "Lunch"
	ProjectBreak       = "Break"
)

// SystemProject describes a reserved project with fixed display and
// aggregation behaviour.
type SystemProject struct {
	Name  string
	Icon  string
	Color string
	// NoWork projects never count towards worked hours.
	NoWork bool
	// Break projects split the day into work segments.
	Break bool
}

// SystemProjects lists the reserved projects in display order.
var SystemProjects = []SystemProject{
	{Name: ProjectNone, Icon: "■", Color: "#fb4934", NoWork: true},
	{Name: ProjectOutOfOffice, Icon: "✈", Color: "#928374", NoWork: true},
	{Name: ProjectLunch, Icon: "🍴", Color: "#8ec07c", NoWork: true, Break: true},
	{Name: ProjectBreak, Icon: "☕", Color: "#8ec07c", NoWork: true, Break: true},
}

// DefaultIcon is used for user-defined projects.
const DefaultIcon = "▶"

// LookupSystemProject returns the reserved project with the given name.
func LookupSystemProject(name string) (SystemProject, bool) {
	for _, p := range SystemProjects {
		if p.Name == name {
			return p, true
		}
	}
	return SystemProject{}, false
}

// IsSystemProject reports whether name is reserved.
func IsSystemProject(name string) bool {
	_, ok := LookupSystemProject(name)
	return ok
}

// IsBreak reports whether punches on project count as a break.
func IsBreak(project string) bool {
	sp, ok := LookupSystemProject(project)
	return ok && sp.Break
}

// Icon returns the display glyph for project.
func Icon(project string) string {
	if p, ok := LookupSystemProject(project); ok {
		return p.Icon
	}
	return DefaultIcon
}

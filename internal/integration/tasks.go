package integration

// Task is one operator-selectable unit of system integration.
type Task string

const (
	TaskDesktopIcon Task = "desktopicon"
	TaskAssocXLSX   Task = "associate-xlsx"
	TaskAssocXLS    Task = "associate-xls"
	TaskAssocCSV    Task = "associate-csv"
	TaskPath        Task = "path"
	TaskStartup     Task = "startup"
	TaskContextMenu Task = "context-menu"
)

// AllTasks lists every task in presentation order.
var AllTasks = []Task{
	TaskDesktopIcon,
	TaskAssocXLSX,
	TaskAssocXLS,
	TaskAssocCSV,
	TaskPath,
	TaskStartup,
	TaskContextMenu,
}

// Selection is the set of tasks the operator confirmed. Each selected task
// independently gates one registrar branch.
type Selection map[Task]bool

// DefaultSelection returns the task set offered before operator
// confirmation. On an upgrade in progress the desktop-icon task starts
// deselected — the shortcut already exists — but the operator may
// re-select it.
func DefaultSelection(upgradeInProgress bool) Selection {
	s := Selection{
		TaskDesktopIcon: !upgradeInProgress,
		TaskAssocXLSX:   true,
		TaskAssocXLS:    true,
		TaskAssocCSV:    false,
		TaskPath:        false,
		TaskStartup:     false,
		TaskContextMenu: true,
	}
	return s
}

// Selected reports whether t is in the set.
func (s Selection) Selected(t Task) bool { return s[t] }

// extensionTask maps a file extension to the task gating its association.
func extensionTask(ext string) (Task, bool) {
	switch ext {
	case ".xlsx":
		return TaskAssocXLSX, true
	case ".xls":
		return TaskAssocXLS, true
	case ".csv":
		return TaskAssocCSV, true
	default:
		return "", false
	}
}

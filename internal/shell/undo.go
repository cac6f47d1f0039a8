package shell

// UndoStack keeps one inverse command per mutating command, newest last.
type UndoStack struct {
	entries []string
}

func (u *UndoStack) Push(inverse string) {
	u.entries = append(u.entries, inverse)
}

// Pop removes and returns the newest inverse command.
func (u *UndoStack) Pop() (string, bool) {
	if len(u.entries) == 0 {
		return "", false
	}
	last := u.entries[len(u.entries)-1]
	u.entries = u.entries[:len(u.entries)-1]
	return last, true
}

func (u *UndoStack) Len() int { return len(u.entries) }

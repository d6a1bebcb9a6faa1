package domain

// Project groups tasks and collaborators under one owner.
type Project struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Client        string         `json:"client,omitempty"`
	Owner         string         `json:"owner,omitempty"`
	Tasks         []Task         `json:"tasks"`
	Collaborators []Collaborator `json:"collaborators"`
}

// ProjectDraft carries the user editable fields of a project.
type ProjectDraft struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Client      string `json:"client,omitempty"`
}

// Collaborator is a user attached to a project.
type Collaborator struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Ack is the acknowledgement returned by deletes, attaches and detaches.
type Ack struct {
	Message string `json:"message"`
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	out := p
	if p.Tasks != nil {
		out.Tasks = append([]Task(nil), p.Tasks...)
	}
	if p.Collaborators != nil {
		out.Collaborators = append([]Collaborator(nil), p.Collaborators...)
	}
	return out
}

// IsZero reports whether p is the empty project record.
func (p Project) IsZero() bool {
	return p.ID == "" && p.Name == "" && len(p.Tasks) == 0 && len(p.Collaborators) == 0
}

// ReplaceProject returns a copy of projects with the entry matching next.ID replaced.
func ReplaceProject(projects []Project, next Project) []Project {
	out := make([]Project, len(projects))
	for i, p := range projects {
		if p.ID == next.ID {
			out[i] = next.Clone()
			continue
		}
		out[i] = p
	}
	return out
}

// RemoveProject returns a copy of projects without the entry with the given id.
func RemoveProject(projects []Project, id string) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// MapProjectTasks applies fn to the task list of the project with the given id.
func MapProjectTasks(projects []Project, id string, fn func([]Task) []Task) []Project {
	out := make([]Project, len(projects))
	for i, p := range projects {
		if p.ID == id {
			p = p.Clone()
			p.Tasks = fn(p.Tasks)
		}
		out[i] = p
	}
	return out
}

// RemoveCollaborator returns a copy of cs without the entry with the given id.
func RemoveCollaborator(cs []Collaborator, id string) []Collaborator {
	out := make([]Collaborator, 0, len(cs))
	for _, c := range cs {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

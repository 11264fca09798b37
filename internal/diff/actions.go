package diff

import "encoding/json"

// Action names as they appear in the "action" field of a record.
const (
	NameOpen              = "open"
	NameClose             = "close"
	NameSetMessage        = "set-message"
	NamePushTags          = "push-tags"
	NameRemoveTags        = "remove-tags"
	NameParameterSet      = "parameter-set"
	NameParameterRemove   = "parameter-remove"
	NamePushMilestones    = "push-milestones"
	NameSetStatus         = "set-status"
	NameSetProjectTag     = "set-project-tag"
	NameSetProjectName    = "set-project-name"
	NameChainLink         = "chain-link"
	NameChainUnlink       = "chain-unlink"
	NameChainAttach       = "chain-attach"
	NameSetParent         = "set-parent"
	NameWorkStart         = "work-start"
	NameWorkStop          = "work-stop"
	NameTagOpen           = "tag-open"
	NameTagSetProjectName = "tag-set-project-name"
	NameOpenIssue         = "open-issue"
	NameCloseIssue        = "close-issue"
)

// Action is one variant of the diff sum type. The set of variants is
// closed; records whose action is not known decode to Unknown.
type Action interface {
	ActionName() string
	isAction()
}

// Open creates an entity. Releases carry their name; issues carry nothing.
type Open struct {
	Name string `json:"name,omitempty"`
}

// Close closes an entity. GitTimestamp, when present, replaces the
// diff's own timestamp as the close time.
type Close struct {
	GitCommit    string   `json:"closing_git_commit,omitempty"`
	GitTimestamp *float64 `json:"git_timestamp,omitempty"`
}

type SetMessage struct {
	Text string `json:"text"`
}

type PushTags struct {
	Tags []string `json:"tags"`
}

type RemoveTags struct {
	Tags []string `json:"tags"`
}

type ParameterSet struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type ParameterRemove struct {
	Key string `json:"key"`
}

type PushMilestones struct {
	Milestones []string `json:"milestones"`
}

type SetStatus struct {
	Status string `json:"status"`
}

type SetProjectTag struct {
	Tag string `json:"tag"`
}

type SetProjectName struct {
	Name string `json:"name"`
}

// ChainLink makes the issue depend on IDs; it cannot close while any of
// them is open.
type ChainLink struct {
	IDs []string `json:"sha1"`
}

type ChainUnlink struct {
	IDs []string `json:"sha1"`
}

// ChainAttach records a weaker, append-only link to IDs.
type ChainAttach struct {
	IDs []string `json:"sha1"`
}

type SetParent struct {
	ID string `json:"sha1"`
}

// WorkStart and WorkStop bracket a period the author spent on an issue.
type WorkStart struct{}

type WorkStop struct{}

type TagOpen struct {
	Name string `json:"name"`
}

type TagSetProjectName struct {
	Name string `json:"name"`
}

// OpenIssue lists issues opened while a release was in progress.
type OpenIssue struct {
	IDs []string `json:"sha1"`
}

// CloseIssue lists issues closed while a release was in progress.
type CloseIssue struct {
	IDs []string `json:"sha1"`
}

// Unknown preserves a record written by a newer client. Folds ignore it.
type Unknown struct {
	Name   string
	Params json.RawMessage
}

func (Open) ActionName() string              { return NameOpen }
func (Close) ActionName() string             { return NameClose }
func (SetMessage) ActionName() string        { return NameSetMessage }
func (PushTags) ActionName() string          { return NamePushTags }
func (RemoveTags) ActionName() string        { return NameRemoveTags }
func (ParameterSet) ActionName() string      { return NameParameterSet }
func (ParameterRemove) ActionName() string   { return NameParameterRemove }
func (PushMilestones) ActionName() string    { return NamePushMilestones }
func (SetStatus) ActionName() string         { return NameSetStatus }
func (SetProjectTag) ActionName() string     { return NameSetProjectTag }
func (SetProjectName) ActionName() string    { return NameSetProjectName }
func (ChainLink) ActionName() string         { return NameChainLink }
func (ChainUnlink) ActionName() string       { return NameChainUnlink }
func (ChainAttach) ActionName() string       { return NameChainAttach }
func (SetParent) ActionName() string         { return NameSetParent }
func (WorkStart) ActionName() string         { return NameWorkStart }
func (WorkStop) ActionName() string          { return NameWorkStop }
func (TagOpen) ActionName() string           { return NameTagOpen }
func (TagSetProjectName) ActionName() string { return NameTagSetProjectName }
func (OpenIssue) ActionName() string         { return NameOpenIssue }
func (CloseIssue) ActionName() string        { return NameCloseIssue }
func (u Unknown) ActionName() string         { return u.Name }

func (Open) isAction()              {}
func (Close) isAction()             {}
func (SetMessage) isAction()        {}
func (PushTags) isAction()          {}
func (RemoveTags) isAction()        {}
func (ParameterSet) isAction()      {}
func (ParameterRemove) isAction()   {}
func (PushMilestones) isAction()    {}
func (SetStatus) isAction()         {}
func (SetProjectTag) isAction()     {}
func (SetProjectName) isAction()    {}
func (ChainLink) isAction()         {}
func (ChainUnlink) isAction()       {}
func (ChainAttach) isAction()       {}
func (SetParent) isAction()         {}
func (WorkStart) isAction()         {}
func (WorkStop) isAction()          {}
func (TagOpen) isAction()           {}
func (TagSetProjectName) isAction() {}
func (OpenIssue) isAction()         {}
func (CloseIssue) isAction()        {}
func (Unknown) isAction()           {}

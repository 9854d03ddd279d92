// Package screen is the semantic model produced by a parse: detections and
// their roles, the raw per-detection records, and the typed segment tree of a
// segmented screen.
//
// Segments live in an arena owned by Screen and refer to each other by ID.
// Parent, child and alignment links are never owning references, so the tree
// can be discarded wholesale when the next parse replaces it.
package screen

// Role is the coarse functional category of a detection label.
type Role string

const (
	RoleNavigation Role = "navigation"
	RoleForm       Role = "form"
	RoleWidget     Role = "widget"
	RoleContent    Role = "content"
)

// Roles lists every role in the order suppression partitions them.
var Roles = []Role{RoleNavigation, RoleForm, RoleWidget, RoleContent}

// Kind is a segment's UI type. Detection labels are kinds; the sub-segment
// kinds (collections and items) are produced by the engine.
type Kind string

const (
	KindTabBar      Kind = "tab-bar"
	KindMenuBar     Kind = "menu-bar"
	KindMenuPanel   Kind = "menu-panel"
	KindContentList Kind = "content-list"
	KindContentGrid Kind = "content-grid"

	KindLogin  Kind = "login"
	KindForm   Kind = "form"
	KindSearch Kind = "search"

	KindComments     Kind = "comments"
	KindChatPanel    Kind = "chat-panel"
	KindToolBar      Kind = "tool-bar"
	KindOptionsPanel Kind = "options-panel"
	KindSidePanel    Kind = "side-panel"

	KindMedia          Kind = "media"
	KindArticle        Kind = "article"
	KindPosts          Kind = "posts"
	KindContentSummary Kind = "contentsummary"

	KindNavCollection   Kind = "nav-collection"
	KindNavItem         Kind = "nav-item"
	KindBasicCollection Kind = "basic-collection"
	KindBasicItem       Kind = "basic-item"

	// KindScreen is the root of a segmented screen.
	KindScreen Kind = "screen"
)

var roleTable = map[Kind]Role{
	KindTabBar:      RoleNavigation,
	KindMenuBar:     RoleNavigation,
	KindMenuPanel:   RoleNavigation,
	KindContentList: RoleNavigation,
	KindContentGrid: RoleNavigation,

	KindLogin:  RoleForm,
	KindForm:   RoleForm,
	KindSearch: RoleForm,

	KindComments:     RoleWidget,
	KindChatPanel:    RoleWidget,
	KindToolBar:      RoleWidget,
	KindOptionsPanel: RoleWidget,
	KindSidePanel:    RoleWidget,

	KindMedia:          RoleContent,
	KindArticle:        RoleContent,
	KindPosts:          RoleContent,
	KindContentSummary: RoleContent,
}

// RoleOf maps a detection label to its role. Sub-segment kinds and unknown
// labels have no role.
func RoleOf(label string) (Role, bool) {
	r, ok := roleTable[Kind(label)]
	return r, ok
}

// Aggregate reports whether k is a conversational container that owns an
// associated message-input form.
func (k Kind) Aggregate() bool {
	return k == KindComments || k == KindChatPanel
}

// collectionLabels is the label given to the basic collection owned by a
// widget or posts segment.
var collectionLabels = map[Kind]string{
	KindComments:     "comments",
	KindChatPanel:    "chats",
	KindToolBar:      "tools",
	KindOptionsPanel: "option-containers",
	KindSidePanel:    "side-containers",
	KindPosts:        "posts",
}

// classLabels maps the detector's class ids to labels.
var classLabels = map[int]Kind{
	1:  KindArticle,
	2:  KindChatPanel,
	3:  KindComments,
	4:  KindContentSummary,
	5:  KindToolBar,
	6:  KindForm,
	7:  KindContentGrid,
	8:  KindContentList,
	9:  KindLogin,
	10: KindMedia,
	11: KindMenuBar,
	12: KindMenuPanel,
	13: KindOptionsPanel,
	14: KindPosts,
	15: KindSearch,
	16: KindSidePanel,
	17: KindTabBar,
}

// LabelForClass returns the label of a detector class id.
func LabelForClass(id int) (string, bool) {
	k, ok := classLabels[id]
	return string(k), ok
}

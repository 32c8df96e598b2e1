package notification

import (
	"strings"
	"time"

	"placement-portal/internal/apperr"
	"placement-portal/internal/model"
)

// MaxEntries 注册表最多保留的通知数量。
const MaxEntries = 10

// Registry 按新到旧保存最近的通知，超出上限时淘汰最旧的一条。
// 非并发安全，由调用方串行化访问。
type Registry struct {
	items  []Notification
	lastID int64
	now    func() time.Time
}

// NewRegistry 创建空注册表。
func NewRegistry() *Registry {
	return &Registry{now: time.Now}
}

// SetClock 替换时间来源，便于测试。
func (r *Registry) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Add 新增通知并放在最前面。ID 取当前毫秒时间戳，与上一条冲突时递增。
func (r *Registry) Add(d Draft) Notification {
	now := r.now()
	id := now.UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id

	n := Notification{
		ID:        id,
		Type:      ParseType(string(d.Type)),
		Title:     plainText(d.Title),
		Message:   plainText(d.Message),
		CreatedAt: now,
		Action:    buildAction(d.Action),
	}
	r.items = append([]Notification{n}, r.items...)
	if len(r.items) > MaxEntries {
		r.items = r.items[:MaxEntries]
	}
	return n
}

// Update 修改通知内容，保留 ID、时间与已读状态。
func (r *Registry) Update(id int64, d Draft) (Notification, bool) {
	i := r.index(id)
	if i < 0 {
		return Notification{}, false
	}
	n := &r.items[i]
	n.Type = ParseType(string(d.Type))
	n.Title = plainText(d.Title)
	n.Message = plainText(d.Message)
	n.Action = buildAction(d.Action)
	return *n, true
}

// Remove 删除通知，不存在时返回 false。
func (r *Registry) Remove(id int64) bool {
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return true
}

// MarkRead 标记已读，返回状态是否发生变化。
func (r *Registry) MarkRead(id int64) (changed bool, found bool) {
	i := r.index(id)
	if i < 0 {
		return false, false
	}
	if r.items[i].Read {
		return false, true
	}
	r.items[i].Read = true
	return true, true
}

// MarkAllRead 全部标记已读，返回本次改变的条数。
func (r *Registry) MarkAllRead() int {
	changed := 0
	for i := range r.items {
		if !r.items[i].Read {
			r.items[i].Read = true
			changed++
		}
	}
	return changed
}

// Get 按 ID 查找。
func (r *Registry) Get(id int64) (Notification, bool) {
	i := r.index(id)
	if i < 0 {
		return Notification{}, false
	}
	return clone(r.items[i]), true
}

// List 返回新到旧排列的副本。
func (r *Registry) List() []Notification {
	out := make([]Notification, len(r.items))
	for i, n := range r.items {
		out[i] = clone(n)
	}
	return out
}

// Unread 未读数量。
func (r *Registry) Unread() int {
	count := 0
	for _, n := range r.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// Len 当前条数。
func (r *Registry) Len() int { return len(r.items) }

// Serialize 生成持久化形式：丢弃按钮行为，只在按钮文字非空时保留文字与链接，
// 跳过缺少 ID 或标题的条目。
func (r *Registry) Serialize() []Persisted {
	out := make([]Persisted, 0, len(r.items))
	for _, n := range r.items {
		if n.ID == 0 || n.Title == "" {
			continue
		}
		p := Persisted{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      string(n.Type),
			Timestamp: n.CreatedAt.UnixMilli(),
			Read:      n.Read,
		}
		if n.Action != nil && n.Action.Text != "" {
			p.Action = &PersistedAction{Text: n.Action.Text, Link: n.Action.Link}
		}
		out = append(out, p)
	}
	return out
}

// Rehydrate 用持久化数据替换注册表内容，并按 Resolve 的固定规则重建按钮行为。
func (r *Registry) Rehydrate(persisted []Persisted, jobs []model.Job) {
	items := make([]Notification, 0, len(persisted))
	var lastID int64
	for _, p := range persisted {
		if p.ID == 0 || p.Title == "" {
			continue
		}
		n := Notification{
			ID:      p.ID,
			Type:    ParseType(p.Type),
			Title:   p.Title,
			Message: p.Message,
			Read:    p.Read,
		}
		if p.Timestamp > 0 {
			n.CreatedAt = time.UnixMilli(p.Timestamp)
		}
		if p.Action != nil && p.Action.Text != "" {
			a := Resolve(p.Action.Text, p.Action.Link, p.Title, p.Message, jobs)
			n.Action = &a
		}
		items = append(items, n)
		if p.ID > lastID {
			lastID = p.ID
		}
	}
	if len(items) > MaxEntries {
		items = items[:MaxEntries]
	}
	r.items = items
	if lastID > r.lastID {
		r.lastID = lastID
	}
}

// Invoke 执行通知按钮并返回效果。除 not_found 外都会标记已读。
func (r *Registry) Invoke(id int64) (Effect, error) {
	i := r.index(id)
	if i < 0 {
		return Effect{}, apperr.NotFound("Notification not found", nil)
	}
	n := &r.items[i]
	if n.Action == nil {
		return Effect{}, apperr.InvalidInput("Action not available for this notification.", nil)
	}

	var eff Effect
	switch n.Action.Kind {
	case ActionLink:
		eff = Effect{Kind: EffectOpenLink, URL: n.Action.Link}
	case ActionShortlisted:
		eff = Effect{Kind: EffectNavigate, View: ViewShortlisted}
	case ActionJobDetail:
		eff = Effect{Kind: EffectNavigate, View: ViewJobDetail, JobID: n.Action.JobID}
	case ActionNotFound:
		return Effect{Kind: EffectNotice, Message: "Job details not found", Severity: TypeError}, nil
	default:
		eff = Effect{Kind: EffectNotice, Message: "Action executed", Severity: TypeInfo}
	}
	n.Read = true
	return eff, nil
}

func (r *Registry) index(id int64) int {
	for i, n := range r.items {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// buildAction 处理新建通知的按钮：没有文字时不保留，未指定 Kind 时有链接即 link，否则 ack。
func buildAction(a *Action) *Action {
	if a == nil || strings.TrimSpace(a.Text) == "" {
		return nil
	}
	out := *a
	out.Text = strings.TrimSpace(out.Text)
	out.Link = strings.TrimSpace(out.Link)
	if out.Kind == "" {
		out.Kind = ActionAck
		if out.Link != "" {
			out.Kind = ActionLink
		}
	}
	return &out
}

func clone(n Notification) Notification {
	if n.Action != nil {
		a := *n.Action
		n.Action = &a
	}
	return n
}

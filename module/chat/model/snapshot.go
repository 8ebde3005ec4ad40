package model

// ProfileInfo advisorInfo/traderInfo/adminInfo 中的一项
type ProfileInfo struct {
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
	UserID    string `json:"userId"`
	Image     string `json:"image"`
}

// Participant 快照中的一个参与者，按 userId 做 key
type Participant struct {
	ProfileInfo
	Role string `json:"role"` // 小写角色名
}

// Snapshot 群信息快照，每次 join/leave/发消息时实时计算，不落库。
// TotalClients 来自目录（trader 数），ActiveClients 来自在线表，两者独立。
type Snapshot struct {
	GroupID       string                 `json:"groupId"`
	ScriptTitle   string                 `json:"scriptTitle"`
	AdvisorID     *string                `json:"advisorId"`
	TotalClients  int                    `json:"totalClients"`
	ActiveClients int                    `json:"activeClients"`
	Participants  map[string]Participant `json:"participants"`
	AdvisorInfo   []ProfileInfo          `json:"advisorInfo"`
	TraderInfo    []ProfileInfo          `json:"traderInfo"`
	AdminInfo     []ProfileInfo          `json:"adminInfo"`
}

// EmptySnapshot 没有成员记录的群
func EmptySnapshot(groupID, title string, active int) *Snapshot {
	return &Snapshot{
		GroupID:       groupID,
		ScriptTitle:   title,
		ActiveClients: active,
		Participants:  map[string]Participant{},
		AdvisorInfo:   []ProfileInfo{},
		TraderInfo:    []ProfileInfo{},
		AdminInfo:     []ProfileInfo{},
	}
}

// Recipients 除 exclude 外的所有参与者 id（顺序不保证）
func (s *Snapshot) Recipients(exclude string) []string {
	out := make([]string, 0, len(s.Participants))
	for id := range s.Participants {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

// Notification 推送到个人通知频道
type Notification struct {
	Sender     string `json:"sender"`
	SenderRole string `json:"senderRole"`
	Message    string `json:"message"`
	Image      string `json:"image"`
	GroupID    string `json:"groupId"`
}

package protocol

// Contact shapes returned by listing endpoints and embedded in events.

type FriendDTO struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	Remark   string `json:"remark"`
}

type GroupDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Permission string `json:"permission"`
}

type MemberDTO struct {
	ID         int64    `json:"id"`
	MemberName string   `json:"memberName"`
	Permission string   `json:"permission"`
	Group      GroupDTO `json:"group"`
}

type GroupConfigDTO struct {
	Name              string `json:"name"`
	Announcement      string `json:"announcement"`
	AllowMemberInvite bool   `json:"allowMemberInvite"`
}

type MemberDetailDTO struct {
	Name         string `json:"name"`
	Nick         string `json:"nick"`
	SpecialTitle string `json:"specialTitle"`
}

type RemoteFileDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"isDir"`
	Size  int64  `json:"size"`
}

type SessionInfoDTO struct {
	SessionKey string `json:"sessionKey"`
	State      string `json:"state"`
	QQ         int64  `json:"qq"`
	Nickname   string `json:"nickname"`
	CreatedAt  int64  `json:"createdAt"`
}

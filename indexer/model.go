package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primaryKey" json:"id"`
	Height uint64 `json:"height"`
	Time   uint64 `json:"time"`
}

type Member struct {
	Address     string `gorm:"primary_key" json:"address"`
	Contributed string `json:"contributed"`
	IsMember    bool   `json:"is_member"`
	MemberSince uint64 `json:"member_since"`
}

type Contribution struct {
	Id     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Member string `gorm:"index" json:"member"`
	Amount string `json:"amount"`
	Total  string `json:"total"`
	Height uint64 `json:"height"`
}

type Proposal struct {
	Id             uint64 `gorm:"primaryKey" json:"id"`
	Proposer       string `gorm:"index" json:"proposer"`
	Description    string `json:"description"`
	Targets        string `json:"targets"`
	Values         string `json:"values"`
	Calldatas      string `json:"calldatas"`
	CreatedAt      uint64 `json:"created_at"`
	ActiveAt       uint64 `json:"active_at"`
	VotingDeadline uint64 `json:"voting_deadline"`
	MemberSnapshot uint64 `json:"member_snapshot"`
	ForVotes       uint64 `json:"for_votes"`
	AgainstVotes   uint64 `json:"against_votes"`
	AbstainVotes   uint64 `json:"abstain_votes"`
	Queued         bool   `json:"queued"`
	Eta            uint64 `json:"eta"`
	Executed       bool   `json:"executed"`
	NewHeight      uint64 `json:"new_height"`
	QueueHeight    uint64 `json:"queue_height"`
	ExecuteHeight  uint64 `json:"execute_height"`
}

type Vote struct {
	Id       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Proposal uint64 `gorm:"index" json:"proposal"`
	Voter    string `gorm:"index" json:"voter"`
	Support  uint8  `json:"support"`
	Reason   string `json:"reason"`
	Height   uint64 `json:"height"`
}

type Execution struct {
	Id          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Proposal    uint64 `gorm:"index" json:"proposal"`
	ActionIndex int    `json:"action_index"`
	Target      string `json:"target"`
	Value       string `json:"value"`
	Calldata    string `json:"calldata"`
	Height      uint64 `json:"height"`
}

package replication

// Network абстракция сетевого уровня для игровой логики
type Network interface {
	// LocalID участник, на котором выполняется код
	LocalID() ParticipantID
	// IsHost истинно на авторитетном участнике
	IsHost() bool
	// Broadcast доставляет сообщение всем участникам, включая отправителя.
	// Отправитель и порядковый номер проставляются сетью.
	Broadcast(msg Message) error
	// Inbox входящие сообщения, разбираются в тике игрового цикла
	Inbox() <-chan Message
}

// SeqGuard отбрасывает устаревшие и повторные сообщения от каждого отправителя
type SeqGuard struct {
	last map[ParticipantID]uint64
}

func NewSeqGuard() *SeqGuard {
	return &SeqGuard{last: make(map[ParticipantID]uint64)}
}

// Accept истинно, если сообщение новее всех ранее принятых от этого отправителя
func (g *SeqGuard) Accept(msg Message) bool {
	if msg.Seq == 0 {
		return true
	}
	if msg.Seq <= g.last[msg.Sender] {
		return false
	}
	g.last[msg.Sender] = msg.Seq
	return true
}

// Forget сбрасывает историю участника (после отключения)
func (g *SeqGuard) Forget(id ParticipantID) {
	delete(g.last, id)
}

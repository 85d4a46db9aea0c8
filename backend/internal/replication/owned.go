package replication

// Owned состояние, которое пишет только владелец, а остальные участники
// получают его копию по сети
type Owned[T any] struct {
	owner   ParticipantID
	version uint64
	value   T
}

func NewOwned[T any](owner ParticipantID, initial T) *Owned[T] {
	return &Owned[T]{owner: owner, value: initial}
}

func (o *Owned[T]) Owner() ParticipantID { return o.owner }

func (o *Owned[T]) Version() uint64 { return o.version }

func (o *Owned[T]) Get() T { return o.value }

// Set локальная запись, разрешена только владельцу
func (o *Owned[T]) Set(by ParticipantID, value T) error {
	if by != o.owner {
		return ErrNotOwner
	}
	o.value = value
	o.version++
	return nil
}

// Replicate применяет копию, пришедшую от владельца. Старые версии игнорируются.
func (o *Owned[T]) Replicate(from ParticipantID, version uint64, value T) bool {
	if from != o.owner || version <= o.version {
		return false
	}
	o.value = value
	o.version = version
	return true
}

package room

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrRoomFull       = errors.New("room is full")
	ErrRoomExists     = errors.New("room already exists")
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not in room")
	ErrNotHost        = errors.New("only the host may do that")
	ErrCannotStart    = errors.New("room is not ready to start")
	ErrBadCapacity    = errors.New("room capacity must be 2 or 3")
)

// Player is one seat in a lobby room.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Ready     bool   `json:"isReady"`
	Connected bool   `json:"isConnected"`
	Host      bool   `json:"isHost"`
	SessionID string `json:"-"`
}

// State is the wire representation of a room.
type State struct {
	Code       string   `json:"code"`
	HostID     string   `json:"hostId"`
	MaxPlayers int      `json:"maxPlayers"`
	Private    bool     `json:"isPrivate"`
	Status     string   `json:"status"`
	Players    []Player `json:"players"`
}

// Room is a pre-game lobby. Seats fill up, players ready up, and once
// everyone is ready and connected the host starts the game.
type Room struct {
	code       string
	maxPlayers int
	private    bool
	hostID     string

	mu      sync.RWMutex
	players []Player
	started bool
}

// New creates a room. maxPlayers must be 2 or 3.
func New(code string, maxPlayers int, private bool, hostID string) (*Room, error) {
	if maxPlayers < 2 || maxPlayers > 3 {
		return nil, ErrBadCapacity
	}
	return &Room{
		code:       strings.ToUpper(code),
		maxPlayers: maxPlayers,
		private:    private,
		hostID:     hostID,
	}, nil
}

// Code returns the room's join code.
func (r *Room) Code() string { return r.code }

// HostID returns the room creator's player ID.
func (r *Room) HostID() string { return r.hostID }

// MaxPlayers returns the room's seat count.
func (r *Room) MaxPlayers() int { return r.maxPlayers }

// Private reports whether the room is hidden from the public list.
func (r *Room) Private() bool { return r.private }

// AddPlayer seats a player. Rejoining under the same ID replaces the old
// seat in place.
func (r *Room) AddPlayer(p Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.players {
		if r.players[i].ID == p.ID {
			r.players[i] = p
			return nil
		}
	}
	if len(r.players) >= r.maxPlayers {
		return ErrRoomFull
	}
	r.players = append(r.players, p)
	return nil
}

// RemovePlayer vacates a player's seat.
func (r *Room) RemovePlayer(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.players {
		if r.players[i].ID == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return
		}
	}
}

// SetReady updates a player's ready flag.
func (r *Room) SetReady(playerID string, ready bool) error {
	return r.update(playerID, func(p *Player) { p.Ready = ready })
}

// SetConnected updates a player's connectivity flag.
func (r *Room) SetConnected(playerID string, connected bool) error {
	return r.update(playerID, func(p *Player) { p.Connected = connected })
}

func (r *Room) update(playerID string, fn func(*Player)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.players {
		if r.players[i].ID == playerID {
			fn(&r.players[i])
			return nil
		}
	}
	return ErrPlayerNotFound
}

// Player returns the seat for playerID.
func (r *Room) Player(playerID string) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.players {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// Players returns a copy of the seated players in join order.
func (r *Room) Players() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Player, len(r.players))
	copy(out, r.players)
	return out
}

// PlayerIDs returns the seated player IDs in join order.
func (r *Room) PlayerIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ID
	}
	return ids
}

// IsFull reports whether every seat is taken.
func (r *Room) IsFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players) >= r.maxPlayers
}

// IsEmpty reports whether no seats are taken.
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players) == 0
}

// CanStart reports whether the game can begin: all seats filled, every
// player ready and connected.
func (r *Room) CanStart() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.players) != r.maxPlayers {
		return false
	}
	for _, p := range r.players {
		if !p.Ready || !p.Connected {
			return false
		}
	}
	return true
}

// MarkStarted records that a game is running in this room.
func (r *Room) MarkStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
}

// Started reports whether the room's game has begun.
func (r *Room) Started() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started
}

// State builds the wire snapshot of the room.
func (r *Room) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := "waiting"
	if r.started {
		status = "playing"
	}
	players := make([]Player, len(r.players))
	copy(players, r.players)

	return State{
		Code:       r.code,
		HostID:     r.hostID,
		MaxPlayers: r.maxPlayers,
		Private:    r.private,
		Status:     status,
		Players:    players,
	}
}

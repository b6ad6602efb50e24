package repository

import (
	"context"
	"time"
)

// PlayerRoundRecord is one player's line in a finished round.
type PlayerRoundRecord struct {
	PlayerID    string
	Score       int
	GwangCount  int
	AnimalCount int
	RibbonCount int
	PiCount     int
}

// RoundRecord is one finished round of one room.
type RoundRecord struct {
	RoomCode    string
	RoundNumber int
	WinnerID    string
	BasePoints  int
	FinalPoints int
	GoCount     int
	NagariCount int
	EndedAt     time.Time
	Players     []PlayerRoundRecord
}

// RoundRepository persists finished rounds.
type RoundRepository struct {
	db *DB
}

// NewRoundRepository creates a round repository. A nil db yields a no-op
// repository.
func NewRoundRepository(db *DB) *RoundRepository {
	return &RoundRepository{db: db}
}

// SaveRound writes the round and its per-player lines in one transaction.
func (r *RoundRepository) SaveRound(ctx context.Context, record RoundRecord) error {
	if r == nil || r.db == nil {
		return nil
	}

	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var resultID string
	err = tx.QueryRow(ctx,
		`INSERT INTO round_results (room_code, round_number, winner_id, base_points, final_points, go_count, nagari_count, ended_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		 RETURNING id`,
		record.RoomCode, record.RoundNumber, record.WinnerID,
		record.BasePoints, record.FinalPoints, record.GoCount, record.NagariCount,
		record.EndedAt,
	).Scan(&resultID)
	if err != nil {
		return err
	}

	for _, p := range record.Players {
		if _, err := tx.Exec(ctx,
			`INSERT INTO round_players (result_id, player_id, score, gwang_count, animal_count, ribbon_count, pi_count)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			resultID, p.PlayerID, p.Score, p.GwangCount, p.AnimalCount, p.RibbonCount, p.PiCount,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// RoomRounds returns the recorded rounds for a room, oldest first.
func (r *RoundRepository) RoomRounds(ctx context.Context, roomCode string) ([]RoundRecord, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}

	rows, err := r.db.pool.Query(ctx,
		`SELECT room_code, round_number, COALESCE(winner_id, ''), base_points, final_points, go_count, nagari_count, ended_at
		 FROM round_results
		 WHERE room_code = $1
		 ORDER BY round_number`,
		roomCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoundRecord
	for rows.Next() {
		var rec RoundRecord
		if err := rows.Scan(
			&rec.RoomCode, &rec.RoundNumber, &rec.WinnerID,
			&rec.BasePoints, &rec.FinalPoints, &rec.GoCount, &rec.NagariCount,
			&rec.EndedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PlayerTotal is one player's cumulative standing across recorded rounds.
type PlayerTotal struct {
	PlayerID   string
	TotalScore int
	RoundsWon  int
}

// PlayerTotals aggregates scores per player for a room, highest first.
func (r *RoundRepository) PlayerTotals(ctx context.Context, roomCode string) ([]PlayerTotal, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}

	rows, err := r.db.pool.Query(ctx,
		`SELECT rp.player_id,
		        COALESCE(SUM(rp.score), 0),
		        COUNT(*) FILTER (WHERE rr.winner_id = rp.player_id)
		 FROM round_players rp
		 JOIN round_results rr ON rr.id = rp.result_id
		 WHERE rr.room_code = $1
		 GROUP BY rp.player_id
		 ORDER BY 2 DESC`,
		roomCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerTotal
	for rows.Next() {
		var t PlayerTotal
		if err := rows.Scan(&t.PlayerID, &t.TotalScore, &t.RoundsWon); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

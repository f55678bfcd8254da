// Package export writes validated games as a flat Parquet dataset, one row
// per transcript record.
package export

import (
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/hailam/chessaudit/internal/replay"
)

// MoveRow is one record with its game context.
type MoveRow struct {
	GameID      string `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Source      string `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlayerName  string `parquet:"name=player_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Opponent    string `parquet:"name=opponent, type=BYTE_ARRAY, convertedtype=UTF8"`
	Round       int32  `parquet:"name=round, type=INT32"`
	Player      int32  `parquet:"name=player, type=INT32"`
	Ply         int32  `parquet:"name=ply, type=INT32"`
	Raw         string `parquet:"name=raw, type=BYTE_ARRAY, convertedtype=UTF8"`
	Move        string `parquet:"name=move, type=BYTE_ARRAY, convertedtype=UTF8"`
	SAN         string `parquet:"name=san, type=BYTE_ARRAY, convertedtype=UTF8"`
	UCI         string `parquet:"name=uci, type=BYTE_ARRAY, convertedtype=UTF8"`
	FEN         string `parquet:"name=fen, type=BYTE_ARRAY, convertedtype=UTF8"`
	Verdict     string `parquet:"name=verdict, type=BYTE_ARRAY, convertedtype=UTF8"`
	Reason      string `parquet:"name=reason, type=BYTE_ARRAY, convertedtype=UTF8"`
	ClaimedMate bool   `parquet:"name=claimed_mate, type=BOOLEAN"`
	GameState   string `parquet:"name=game_state, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Rows flattens a report. Ply counts records from 1.
func Rows(gameID, source string, r *replay.Report) []MoveRow {
	rows := make([]MoveRow, 0, len(r.Records))
	for i, rec := range r.Records {
		opponent := 2
		if rec.Player == 2 {
			opponent = 1
		}
		rows = append(rows, MoveRow{
			GameID:      gameID,
			Source:      source,
			PlayerName:  r.Name(rec.Player),
			Opponent:    r.Name(opponent),
			Round:       int32(rec.Round),
			Player:      int32(rec.Player),
			Ply:         int32(i + 1),
			Raw:         rec.Raw,
			Move:        rec.Move,
			SAN:         rec.SAN,
			UCI:         rec.UCI,
			FEN:         rec.FEN,
			Verdict:     rec.Verdict.String(),
			Reason:      rec.Reason,
			ClaimedMate: rec.ClaimedMate,
			GameState:   r.State.String(),
		})
	}
	return rows
}

// WriteParquet drains rows into a Snappy-compressed file at path.
func WriteParquet(path string, rows <-chan MoveRow, parallel int64) error {
	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(MoveRow), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for row := range rows {
		if err := parquetWriter.Write(row); err != nil {
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// ReadParquet loads every row of a file written by WriteParquet.
func ReadParquet(path string, parallel int64) ([]MoveRow, error) {
	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(MoveRow), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	num := int(parquetReader.GetNumRows())
	rows := make([]MoveRow, 0, num)
	batchSize := 1024
	for offset := 0; offset < num; offset += batchSize {
		remain := num - offset
		if remain < batchSize {
			batchSize = remain
		}
		batch := make([]MoveRow, batchSize)
		if err := parquetReader.Read(&batch); err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
	return rows, nil
}

package querybuilder

import (
	"reflect"
	"testing"
)

func TestSelectBuilder_ForUpdateNowait(t *testing.T) {
	query, args, err := Select("war_id", "poi_id", "version").
		From("war_poi_controls").
		Where(Eq("war_id", "w1"), Eq("poi_id", "p1")).
		ForUpdate(true).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT war_id, poi_id, version FROM war_poi_controls WHERE war_id = $1 AND poi_id = $2 FOR UPDATE NOWAIT"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if !reflect.DeepEqual(args, []any{"w1", "p1"}) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_OrderLimitAndIn(t *testing.T) {
	query, args, err := Select("id").
		From("wars").
		Where(In("status", []any{"active", "ended"}), IsNull("ended_at")).
		OrderBy("started_at DESC").
		Limit(5).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM wars WHERE status IN ($1, $2) AND ended_at IS NULL ORDER BY started_at DESC LIMIT 5"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_EmptyInMatchesNothing(t *testing.T) {
	query, args, err := Select("id").From("wars").Where(In("id", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT id FROM wars WHERE 1=0" || len(args) != 0 {
		t.Fatalf("unexpected query %q args %+v", query, args)
	}
}

func TestUpdateBuilder_SetExprBindsArgs(t *testing.T) {
	query, args, err := Update("war_poi_controls").
		Set("is_contested", false).
		SetExpr("version", "version + ?", 1).
		SetExpr("updated_at", "NOW()").
		Where(Eq("war_id", "w1"), Eq("version", int64(3))).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE war_poi_controls SET is_contested = $1, version = version + $2, updated_at = NOW() WHERE war_id = $3 AND version = $4"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if !reflect.DeepEqual(args, []any{false, 1, "w1", int64(3)}) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("war_presence").
		Where(Eq("war_id", "w1"), Lt("last_action_at", "cutoff")).
		Suffix("RETURNING player_id").
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM war_presence WHERE war_id = $1 AND last_action_at < $2 RETURNING player_id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder_RequiresCondition(t *testing.T) {
	if _, _, err := DeleteFrom("war_presence").ToSQL(); err == nil {
		t.Fatalf("expected error for unconditional delete")
	}
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("wars").Columns("id", "status").Values("w1").ToSQL()
	if err == nil {
		t.Fatalf("expected row width error")
	}
}

type presenceRow struct {
	PlayerID string `db:"player_id"`
	POIID    string `db:"poi_id"`
	WarID    string `db:"war_id"`
	Ignored  string `db:"-"`
	hidden   string
}

func TestUpsertModel(t *testing.T) {
	query, args, err := UpsertModel("war_presence", presenceRow{PlayerID: "pl1", POIID: "p1", WarID: "w1", hidden: "x"}, "player_id", "war_id")
	if err != nil {
		t.Fatalf("build upsert: %v", err)
	}

	wantQuery := "INSERT INTO war_presence (player_id, poi_id, war_id) VALUES ($1, $2, $3) ON CONFLICT (player_id, war_id) DO UPDATE SET poi_id = EXCLUDED.poi_id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if !reflect.DeepEqual(args, []any{"pl1", "p1", "w1"}) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestColumnsOf(t *testing.T) {
	got := ColumnsOf(&presenceRow{})
	want := []string{"player_id", "poi_id", "war_id"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ColumnsOf = %v, want %v", got, want)
	}
}

package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional; defaults to <data>/index/decisions.sqlite)")
	limit := fs.Int("limit", 20, "result limit")
	consumer := fs.String("consumer", "", "consumer_id filter (decisions)")
	source := fs.String("source", "", "source filter (decisions)")
	decisionID := fs.String("decision", "", "decision id (candidates)")
	_ = fs.Parse(args)

	q := "decisions"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "decisions.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}

	var rerr error
	switch q {
	case "decisions":
		rerr = queryDecisions(db, decisionFilter{
			Consumer: strings.TrimSpace(*consumer),
			Source:   strings.ToUpper(strings.TrimSpace(*source)),
			Limit:    *limit,
		}, printJSON)

	case "candidates":
		if strings.TrimSpace(*decisionID) == "" {
			fmt.Fprintln(os.Stderr, "missing -decision")
			os.Exit(2)
		}
		rerr = queryCandidates(db, strings.TrimSpace(*decisionID), printJSON)

	case "catalogs":
		rerr = queryCatalogs(db, printJSON)

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data|-db PATH] decisions|candidates|catalogs")
		os.Exit(2)
	}
	if rerr != nil {
		fmt.Fprintln(os.Stderr, "query:", rerr)
		os.Exit(1)
	}
}

type decisionFilter struct {
	Consumer string
	Source   string
	Limit    int
}

type decisionRow struct {
	ID               string `json:"id"`
	At               string `json:"at"`
	AcquirerID       string `json:"acquirer_id"`
	ConsumerID       string `json:"consumer_id,omitempty"`
	Source           string `json:"source"`
	InventoryAllowed bool   `json:"inventory_allowed"`
	BestInventory    string `json:"best_inventory,omitempty"`
	ResourceID       string `json:"resource_id,omitempty"`
	FinalDef         string `json:"final_def,omitempty"`
	Guard            string `json:"guard,omitempty"`
}

func queryDecisions(db *sql.DB, f decisionFilter, emit func(any)) error {
	var (
		where []string
		args  []any
	)
	if f.Consumer != "" {
		where = append(where, "consumer_id=?")
		args = append(args, f.Consumer)
	}
	if f.Source != "" {
		where = append(where, "source=?")
		args = append(args, f.Source)
	}
	q := `SELECT id,at,acquirer_id,consumer_id,source,inventory_allowed,best_inventory,resource_id,final_def,guard FROM decisions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY at DESC LIMIT ?"
	args = append(args, f.Limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r decisionRow
		var allowed int
		if err := rows.Scan(&r.ID, &r.At, &r.AcquirerID, &r.ConsumerID, &r.Source, &allowed, &r.BestInventory, &r.ResourceID, &r.FinalDef, &r.Guard); err != nil {
			return err
		}
		r.InventoryAllowed = allowed != 0
		emit(r)
	}
	return rows.Err()
}

type candidateRow struct {
	DecisionID string `json:"decision_id"`
	Seq        int    `json:"seq"`
	ResourceID string `json:"resource_id"`
	Category   string `json:"category"`
	DistSq     int    `json:"dist_sq"`
	Verdict    string `json:"verdict"`
}

func queryCandidates(db *sql.DB, decisionID string, emit func(any)) error {
	rows, err := db.Query(`SELECT decision_id,seq,resource_id,category,dist_sq,verdict FROM candidates WHERE decision_id=? ORDER BY seq`, decisionID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r candidateRow
		if err := rows.Scan(&r.DecisionID, &r.Seq, &r.ResourceID, &r.Category, &r.DistSq, &r.Verdict); err != nil {
			return err
		}
		emit(r)
	}
	return rows.Err()
}

func queryCatalogs(db *sql.DB, emit func(any)) error {
	rows, err := db.Query(`SELECT name,digest,updated_at FROM catalogs ORDER BY name`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r struct {
			Name      string `json:"name"`
			Digest    string `json:"digest"`
			UpdatedAt string `json:"updated_at"`
		}
		if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt); err != nil {
			return err
		}
		emit(r)
	}
	return rows.Err()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

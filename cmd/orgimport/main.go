package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unionhall/unionhall/modules/org/domain/types"
	orgpersistence "github.com/unionhall/unionhall/modules/org/infrastructure/persistence"
	orgservices "github.com/unionhall/unionhall/modules/org/services"
	"github.com/unionhall/unionhall/pkg/orgcode"
)

// orgimport loads a flat CSV of organizations and submits CREATE events in
// parent-before-child order. Column layout:
//
//	code,name,short_name,slug,type,parent_code,member_count
//
// Rows referencing an unknown parent code, duplicate codes, and parent
// chains that loop are rejected before anything is written.
func main() {
	fs := flag.NewFlagSet("orgimport", flag.ExitOnError)
	fs.SetOutput(os.Stderr)
	var (
		url     string
		tenant  string
		file    string
		dryRun  bool
		timeout time.Duration
	)
	fs.StringVar(&url, "url", os.Getenv("DATABASE_URL"), "postgres connection string")
	fs.StringVar(&tenant, "tenant", "", "tenant uuid")
	fs.StringVar(&file, "file", "", "csv file path")
	fs.BoolVar(&dryRun, "dry-run", false, "validate only, write nothing")
	fs.DurationVar(&timeout, "timeout", 60*time.Second, "overall deadline")
	_ = fs.Parse(os.Args[1:])

	if tenant == "" {
		log.Fatal("missing --tenant")
	}
	if file == "" {
		log.Fatal("missing --file")
	}

	rows, err := readImportFile(file)
	if err != nil {
		log.Fatal(err)
	}
	ordered, err := orderParentFirst(rows)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("validated %d organizations", len(ordered))
	if dryRun {
		return
	}

	if url == "" {
		log.Fatal("missing --url (or DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	svc := orgservices.NewOrgWriteService(orgpersistence.NewOrgPGStore(pool))
	requestID := uuid.NewString()
	for _, row := range ordered {
		_, err := svc.Create(ctx, tenant, requestID, "", orgservices.CreateOrganizationInput{
			Code:       row.code,
			Name:       row.name,
			ShortName:  row.shortName,
			Slug:       row.slug,
			Type:       types.OrgType(row.orgType),
			ParentCode: row.parentCode,
		})
		if err != nil {
			log.Fatalf("create %s: %v", row.code, err)
		}
		if row.memberCount > 0 {
			if err := svc.SetMemberCount(ctx, tenant, requestID, "", row.code, row.memberCount); err != nil {
				log.Fatalf("set member count %s: %v", row.code, err)
			}
		}
		log.Printf("created %s", row.code)
	}
}

type importRow struct {
	code        string
	name        string
	shortName   string
	slug        string
	orgType     string
	parentCode  string
	memberCount int
	line        int
}

func readImportFile(path string) ([]importRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 7

	var out []importRow
	seen := map[string]int{}
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "code") {
			continue
		}

		code, err := orgcode.Normalize(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid code %q", line, record[0])
		}
		if prev, ok := seen[code]; ok {
			return nil, fmt.Errorf("line %d: duplicate code %s (first at line %d)", line, code, prev)
		}
		seen[code] = line

		name := strings.TrimSpace(record[1])
		if name == "" {
			return nil, fmt.Errorf("line %d: name required", line)
		}
		orgType := strings.TrimSpace(record[4])
		if !types.OrgType(orgType).Valid() {
			return nil, fmt.Errorf("line %d: invalid type %q", line, orgType)
		}

		parentCode := strings.TrimSpace(record[5])
		if parentCode != "" {
			if parentCode, err = orgcode.Normalize(parentCode); err != nil {
				return nil, fmt.Errorf("line %d: invalid parent code %q", line, record[5])
			}
		}

		memberCount := 0
		if raw := strings.TrimSpace(record[6]); raw != "" {
			memberCount, err = strconv.Atoi(raw)
			if err != nil || memberCount < 0 {
				return nil, fmt.Errorf("line %d: invalid member_count %q", line, record[6])
			}
		}

		out = append(out, importRow{
			code:        code,
			name:        name,
			shortName:   strings.TrimSpace(record[2]),
			slug:        strings.TrimSpace(record[3]),
			orgType:     orgType,
			parentCode:  parentCode,
			memberCount: memberCount,
			line:        line,
		})
	}
	return out, nil
}

// orderParentFirst returns rows sorted so every parent precedes its
// children. A row whose parent never resolves, or a parent chain that loops,
// fails the whole import.
func orderParentFirst(rows []importRow) ([]importRow, error) {
	byCode := make(map[string]importRow, len(rows))
	for _, row := range rows {
		byCode[row.code] = row
	}
	for _, row := range rows {
		if row.parentCode == "" {
			continue
		}
		if row.parentCode == row.code {
			return nil, fmt.Errorf("line %d: %s is its own parent", row.line, row.code)
		}
		if _, ok := byCode[row.parentCode]; !ok {
			return nil, fmt.Errorf("line %d: unknown parent code %s", row.line, row.parentCode)
		}
	}

	placed := make(map[string]bool, len(rows))
	ordered := make([]importRow, 0, len(rows))
	remaining := rows
	for len(remaining) > 0 {
		var next []importRow
		progressed := false
		for _, row := range remaining {
			if row.parentCode == "" || placed[row.parentCode] {
				ordered = append(ordered, row)
				placed[row.code] = true
				progressed = true
				continue
			}
			next = append(next, row)
		}
		if !progressed {
			codes := make([]string, 0, len(next))
			for _, row := range next {
				codes = append(codes, row.code)
			}
			return nil, fmt.Errorf("parent cycle involving: %s", strings.Join(codes, ", "))
		}
		remaining = next
	}
	return ordered, nil
}

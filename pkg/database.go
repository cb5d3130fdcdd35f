package leptons

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// LoadPileupFromDB reads every variation of the pileup correction for one
// data taking period.
func LoadPileupFromDB(db *sqlx.DB, period string, verbosity int) (*PileupTable, error) {
	query := "SELECT Period, Variation, Value FROM PileupWeights WHERE Period = ?"
	if verbosity > 0 {
		message := fmt.Sprintf("Reading pileup weights for %s from database", period)
		logger.Info(message, "database")
	}
	if verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(query, period)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return nil, errMessage
	}
	defer rows.Close()

	var entries []PileupEntry
	for rows.Next() {
		result := PileupEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return nil, errMessage
		}
		entries = append(entries, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no pileup weights for period %q", period)
	}
	return NewPileupTable(entries), nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/noah-isme/reporting-engine/internal/models"
)

// ErrQualificationNotFound is returned when the warehouse has no row.
var ErrQualificationNotFound = errors.New("qualification not found")

// DefaultQualificationTable is the warehouse table holding cutoff standings.
const DefaultQualificationTable = "avantifellows.prod_af_db.student_profile_al"

var tablePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+){1,2}$`)

type rowIterator interface {
	Next(dst interface{}) error
}

type warehouseReader interface {
	Read(ctx context.Context, query string, params []bigquery.QueryParameter) (rowIterator, error)
}

type bigQueryReader struct {
	client *bigquery.Client
}

func (r bigQueryReader) Read(ctx context.Context, query string, params []bigquery.QueryParameter) (rowIterator, error) {
	q := r.client.Query(query)
	q.Parameters = params
	return q.Read(ctx)
}

type qualificationRow struct {
	Status             bigquery.NullString  `bigquery:"qualification_status"`
	MarksToQualify     bigquery.NullFloat64 `bigquery:"marks_to_qualify"`
	RecommendedChapter bigquery.NullString  `bigquery:"recommended_chapter"`
	RecommendedLink    bigquery.NullString  `bigquery:"recommended_link"`
}

// QualificationRepository reads cutoff standings from the BigQuery warehouse.
type QualificationRepository struct {
	reader warehouseReader
	query  string
}

// NewQualificationRepository constructs the repository. An empty table selects
// DefaultQualificationTable.
func NewQualificationRepository(client *bigquery.Client, table string) (*QualificationRepository, error) {
	return newQualificationRepository(bigQueryReader{client: client}, table)
}

func newQualificationRepository(reader warehouseReader, table string) (*QualificationRepository, error) {
	if table == "" {
		table = DefaultQualificationTable
	}
	if !tablePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid qualification table %q", table)
	}
	query := "SELECT qualification_status, marks_to_qualify, recommended_chapter, recommended_link\n" +
		"FROM `" + table + "`\n" +
		"WHERE user_id = @user_id AND test_id = @test_id AND section = 'overall'\n" +
		"LIMIT 1"
	return &QualificationRepository{reader: reader, query: query}, nil
}

// Get returns the overall qualification row for a user and test.
func (r *QualificationRepository) Get(ctx context.Context, userID, testID string) (*models.Qualification, error) {
	it, err := r.reader.Read(ctx, r.query, []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "test_id", Value: testID},
	})
	if err != nil {
		return nil, fmt.Errorf("query qualification: %w", err)
	}

	var row qualificationRow
	if err := it.Next(&row); err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, ErrQualificationNotFound
		}
		return nil, fmt.Errorf("read qualification: %w", err)
	}

	q := &models.Qualification{Status: models.QualificationStatus(row.Status.StringVal)}
	if row.MarksToQualify.Valid {
		margin := row.MarksToQualify.Float64
		q.Margin = &margin
	}
	if row.RecommendedChapter.Valid {
		chapter := row.RecommendedChapter.StringVal
		q.RecommendedChapter = &chapter
	}
	if row.RecommendedLink.Valid {
		link := row.RecommendedLink.StringVal
		q.RecommendedLink = &link
	}
	return q, nil
}

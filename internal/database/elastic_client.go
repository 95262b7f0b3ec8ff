package database

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/locvowork/employee_records/internal/config"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/olivere/elastic/v7"
	"github.com/shopspring/decimal"
)

const employeeIndexMapping = `{
	"mappings": {
		"properties": {
			"id":            {"type": "integer"},
			"employee_name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"email":         {"type": "keyword"},
			"department":    {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"salary":        {"type": "scaled_float", "scaling_factor": 100},
			"address1":      {"type": "text"},
			"address2":      {"type": "text"},
			"address3":      {"type": "text"},
			"state":         {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"district":      {"type": "text"},
			"pincode":       {"type": "keyword"}
		}
	}
}`

var searchFields = []string{
	"employee_name^3", "email", "department^2", "state", "district",
	"address1", "address2", "address3", "pincode",
}

// EmployeeDoc mirrors domain.Employee for ES storage.
type EmployeeDoc struct {
	ID           int     `json:"id"`
	EmployeeName string  `json:"employee_name"`
	Email        string  `json:"email"`
	Department   string  `json:"department"`
	Salary       float64 `json:"salary"`
	Address1     string  `json:"address1"`
	Address2     string  `json:"address2"`
	Address3     string  `json:"address3"`
	State        string  `json:"state"`
	District     string  `json:"district"`
	Pincode      string  `json:"pincode"`
}

func toDoc(e domain.Employee) EmployeeDoc {
	salary, _ := e.Salary.Float64()
	return EmployeeDoc{
		ID:           e.ID,
		EmployeeName: e.EmployeeName,
		Email:        e.Email,
		Department:   e.Department,
		Salary:       salary,
		Address1:     e.Address1,
		Address2:     e.Address2,
		Address3:     e.Address3,
		State:        e.State,
		District:     e.District,
		Pincode:      e.Pincode,
	}
}

func (d EmployeeDoc) toEmployee() domain.Employee {
	return domain.Employee{
		ID:           d.ID,
		EmployeeName: d.EmployeeName,
		Email:        d.Email,
		Department:   d.Department,
		Salary:       decimal.NewFromFloat(d.Salary).Round(2),
		Address1:     d.Address1,
		Address2:     d.Address2,
		Address3:     d.Address3,
		State:        d.State,
		District:     d.District,
		Pincode:      d.Pincode,
	}
}

// ElasticSearchClient wraps olivere/elastic client.
type ElasticSearchClient struct {
	client *elastic.Client
	index  string
}

// NewElasticSearchClient creates a new client for Elasticsearch 7.x.
func NewElasticSearchClient(cfg config.ElasticConfig) (*ElasticSearchClient, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(cfg.URL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	index := cfg.Index
	if index == "" {
		index = "employees"
	}
	return &ElasticSearchClient{client: client, index: index}, nil
}

// EnsureIndex creates the employee index with its mapping when missing.
func (es *ElasticSearchClient) EnsureIndex(ctx context.Context) error {
	exists, err := es.client.IndexExists(es.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", es.index, err)
	}
	if exists {
		return nil
	}
	if _, err := es.client.CreateIndex(es.index).BodyString(employeeIndexMapping).Do(ctx); err != nil {
		return fmt.Errorf("failed to create index %s: %w", es.index, err)
	}
	return nil
}

// Index indexes an employee document using its id as document id.
func (es *ElasticSearchClient) Index(ctx context.Context, e domain.Employee) error {
	_, err := es.client.Index().
		Index(es.index).
		Id(strconv.Itoa(e.ID)).
		BodyJson(toDoc(e)).
		Refresh("true").
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index employee %d: %w", e.ID, err)
	}
	return nil
}

// BulkIndex efficiently indexes multiple employees.
func (es *ElasticSearchClient) BulkIndex(ctx context.Context, employees []domain.Employee) error {
	bulk := es.client.Bulk()
	for _, e := range employees {
		bulk.Add(elastic.NewBulkIndexRequest().
			Index(es.index).
			Id(strconv.Itoa(e.ID)).
			Doc(toDoc(e)))
	}
	return es.doBulk(ctx, bulk, "index")
}

// Delete removes documents by employee id. Missing documents are ignored.
func (es *ElasticSearchClient) Delete(ctx context.Context, ids ...int) error {
	bulk := es.client.Bulk()
	for _, id := range ids {
		bulk.Add(elastic.NewBulkDeleteRequest().Index(es.index).Id(strconv.Itoa(id)))
	}
	return es.doBulk(ctx, bulk, "delete")
}

func (es *ElasticSearchClient) doBulk(ctx context.Context, bulk *elastic.BulkService, op string) error {
	if bulk.NumberOfActions() == 0 {
		return nil
	}

	resp, err := bulk.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk %s failed: %w", op, err)
	}

	if resp.Errors {
		for _, item := range resp.Items {
			for _, res := range item {
				if res.Error != nil && res.Status != http.StatusNotFound {
					return fmt.Errorf("bulk %s item %s failed: %s", op, res.Id, res.Error.Reason)
				}
			}
		}
	}
	return nil
}

// Search performs a fuzzy full-text match across name, department, state and address fields.
func (es *ElasticSearchClient) Search(ctx context.Context, text string, limit int) ([]domain.Employee, error) {
	q := elastic.NewMultiMatchQuery(text, searchFields...).
		Type("best_fields").
		Fuzziness("AUTO")

	result, err := es.client.Search().
		Index(es.index).
		Query(q).
		Size(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	employees := make([]domain.Employee, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var doc EmployeeDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode hit %s: %w", hit.Id, err)
		}
		employees = append(employees, doc.toEmployee())
	}
	return employees, nil
}

var _ domain.EmployeeIndex = (*ElasticSearchClient)(nil)

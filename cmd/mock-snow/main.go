// mock-snow is a stand-in ticketing backend for local end-to-end runs.
// It serves the static incident listing plus just enough of the table API
// (create and update) for the triage pipeline to talk to.
package main

import (
	"flag"
	"fmt"
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var listenAddr = flag.String("listen", ":5000", "Listen address")

type incident struct {
	Number           string `json:"number"`
	ShortDescription string `json:"short_description"`
	SysID            string `json:"sys_id"`
}

// seedIncidents is the static fixture the listing endpoint serves.
var seedIncidents = []incident{
	{Number: "INC1001", ShortDescription: "Data pipeline failure in production environment", SysID: "de-001"},
	{Number: "INC1002", ShortDescription: "ETL job timing out during nightly batch process", SysID: "de-002"},
	{Number: "INC1003", ShortDescription: "Data warehouse sync failed between Redshift and S3", SysID: "de-003"},
	{Number: "INC1004", ShortDescription: "Schema mismatch during BigQuery migration", SysID: "mig-001"},
	{Number: "INC1005", ShortDescription: "Null values detected post PostgreSQL to Snowflake migration", SysID: "mig-002"},
	{Number: "INC1006", ShortDescription: "Broken data lineage after Airflow DAG deployment", SysID: "de-004"},
	{Number: "INC1007", ShortDescription: "Kafka consumer lagging behind expected offsets", SysID: "de-005"},
	{Number: "INC1008", ShortDescription: "Data duplication issue after MongoDB to DynamoDB migration", SysID: "mig-003"},
}

// store holds tickets created through the table API.
type store struct {
	mu       sync.Mutex
	counters map[string]int
	tickets  map[string]map[string]interface{}
}

func newStore() *store {
	return &store{
		counters: map[string]int{},
		tickets:  map[string]map[string]interface{}{},
	}
}

var tablePrefixes = map[string]string{
	"incident":       "INC",
	"change_request": "CHG",
}

// create records a new ticket and assigns it a number and sys_id.
func (s *store) create(table string, fields map[string]interface{}) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[table]++
	prefix, ok := tablePrefixes[table]
	if !ok {
		prefix = "TKT"
	}
	number := fmt.Sprintf("%s%07d", prefix, 10000+s.counters[table])
	sysID := uuid.NewString()

	fields["number"] = number
	fields["sys_id"] = sysID
	s.tickets[number] = fields
	return number, sysID
}

// update merges fields into an existing ticket; it reports whether the
// ticket exists.
func (s *store) update(number string, fields map[string]interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[number]
	if !ok {
		return false
	}
	for k, v := range fields {
		ticket[k] = v
	}
	return true
}

func main() {
	flag.Parse()

	app := fiber.New(fiber.Config{
		AppName: "mock-snow",
	})

	tickets := newStore()

	app.Get("/incidents", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"result": seedIncidents})
	})

	app.Post("/:table", func(c *fiber.Ctx) error {
		table := c.Params("table")
		if _, ok := tablePrefixes[table]; !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": fiber.Map{"message": "unknown table"},
			})
		}

		fields := map[string]interface{}{}
		if err := c.BodyParser(&fields); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fiber.Map{"message": "invalid JSON body"},
			})
		}

		number, sysID := tickets.create(table, fields)
		log.Printf("created %s %s", table, number)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"result": fiber.Map{"sys_id": sysID, "number": number},
		})
	})

	app.Patch("/:table/:number", func(c *fiber.Ctx) error {
		number := c.Params("number")

		fields := map[string]interface{}{}
		if err := c.BodyParser(&fields); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fiber.Map{"message": "invalid JSON body"},
			})
		}

		if !tickets.update(number, fields) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": fiber.Map{"message": "no such ticket"},
			})
		}
		log.Printf("updated %s", number)

		return c.JSON(fiber.Map{
			"result": fiber.Map{"number": number},
		})
	})

	log.Fatal(app.Listen(*listenAddr))
}

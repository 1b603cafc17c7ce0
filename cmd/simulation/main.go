package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"care-triage-be/internal/dto"
	"care-triage-be/internal/entity"
	"care-triage-be/internal/pkg/logger"
	"care-triage-be/pkg/events"

	pktNats "care-triage-be/pkg/nats"

	"github.com/fatih/color"
)

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    dto.RunTriageResponse `json:"data"`
}

type scenario struct {
	name      string
	messages  []string
	wantLevel entity.SeverityLevel
}

var scenarios = []scenario{
	{
		name:      "Sore throat, two days",
		messages:  []string{"I've had a sore throat and mild fever for 2 days"},
		wantLevel: entity.SeverityGreen,
	},
	{
		name:      "Chest pain",
		messages:  []string{"Sudden crushing chest pain spreading to my left arm, and difficulty breathing"},
		wantLevel: entity.SeverityRed,
	},
	{
		name: "Follow-up on the same case",
		messages: []string{
			"I have a headache that started this morning",
			"It is now much worse and I feel some confusion",
		},
		wantLevel: entity.SeverityAmber,
	},
}

func main() {
	baseURL := flag.String("url", "http://localhost:3000/api/triage/v1", "triage API base URL")
	natsURL := flag.String("nats", "", "NATS URL; when set, completed cases are printed as they are relayed")
	flag.Parse()

	color.Cyan("=== Care Triage Simulation ===")

	if *natsURL != "" {
		sub, err := watchCompletions(*natsURL)
		if err != nil {
			color.Red("NATS watch disabled: %v", err)
		} else {
			defer sub.Close()
		}
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	passed := 0
	for i, sc := range scenarios {
		color.Yellow("\n[%d] %s", i+1, sc.name)
		if runScenario(client, *baseURL, sc) {
			passed++
		}
	}

	// Give relayed events a moment to arrive.
	if *natsURL != "" {
		time.Sleep(2 * time.Second)
	}

	summary := color.GreenString
	if passed != len(scenarios) {
		summary = color.RedString
	}
	fmt.Println(summary("\n%d/%d scenarios matched the expected triage level", passed, len(scenarios)))
}

func runScenario(client *http.Client, baseURL string, sc scenario) bool {
	caseId := ""
	var last *dto.RunTriageResponse
	for _, msg := range sc.messages {
		fmt.Printf("PATIENT: %s\n", msg)

		start := time.Now()
		res, err := runTriage(client, baseURL, caseId, msg)
		if err != nil {
			color.Red("Failed: %v", err)
			return false
		}
		caseId = res.Case.CaseId.String()
		last = res
		color.Green("Case %s answered in %v", caseId, time.Since(start).Round(time.Millisecond))
	}

	printCase(last)

	level := entity.SeverityUnknown
	if last.Case.Triage != nil {
		level = last.Case.Triage.SeverityLevel
	}
	if level != sc.wantLevel {
		color.Red("Expected %s, got %s", sc.wantLevel, level)
		return false
	}
	return true
}

func runTriage(client *http.Client, baseURL, caseId, message string) (*dto.RunTriageResponse, error) {
	body, _ := json.Marshal(dto.RunTriageRequest{CaseId: caseId, Message: message})
	resp, err := client.Post(baseURL+"/run", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &env.Data, nil
}

func printCase(res *dto.RunTriageResponse) {
	record := res.Case
	if len(res.KeywordRedFlags) > 0 {
		color.Magenta("Keyword red flags: %s", strings.Join(res.KeywordRedFlags, ", "))
	}
	if record.Triage != nil {
		levelColor := color.New(color.FgGreen)
		switch record.Triage.SeverityLevel {
		case entity.SeverityAmber:
			levelColor = color.New(color.FgYellow)
		case entity.SeverityRed:
			levelColor = color.New(color.FgRed, color.Bold)
		case entity.SeverityUnknown:
			levelColor = color.New(color.FgWhite)
		}
		levelColor.Printf("Triage: %s -> %s\n", record.Triage.SeverityLevel, record.Triage.RecommendedAction)
		fmt.Printf("Rationale: %s\n", record.Triage.Rationale)
	}
	if record.Action != nil {
		for _, task := range record.Action.Tasks {
			fmt.Printf("  - %s\n", task)
		}
		if record.Action.FollowUpDue != nil {
			fmt.Printf("Follow up by: %s\n", record.Action.FollowUpDue.Format(time.RFC1123))
		}
	}
	if record.Summary != nil && record.Summary.User.LLMSummary != "" {
		color.Cyan("Summary: %s", record.Summary.User.LLMSummary)
	}
}

func watchCompletions(url string) (*pktNats.Subscriber, error) {
	sub, err := pktNats.NewSubscriber(url, logger.NewIsolatedLogger("logs/simulation.log"))
	if err != nil {
		return nil, err
	}
	err = sub.Subscribe(context.Background(), pktNats.Subject(events.TypeCaseCompleted), "care-triage-simulation",
		func(ctx context.Context, event events.BaseEvent) error {
			color.Blue("[NATS] %s case=%s severity=%v action=%v",
				event.Type, event.CaseId(), event.Data["severity_level"], event.Data["recommended_action"])
			return nil
		})
	if err != nil {
		sub.Close()
		return nil, err
	}
	log.Printf("Watching %s on %s", pktNats.Subject(events.TypeCaseCompleted), url)
	return sub, nil
}

package services

import (
	"bytes"
	"eco-community-server/models"
	"fmt"
	"text/template"
	"time"

	"gorm.io/gorm"
)

// DocumentRenderer turns agreement markup into the stored document bytes.
// The real deployment plugs a PDF engine in here; rendering failures roll
// the whole proposal decision back.
type DocumentRenderer interface {
	Render(html string) ([]byte, error)
}

// HTMLDocumentRenderer stores the markup itself as the document. Stands in
// for the PDF capability in development and tests.
type HTMLDocumentRenderer struct{}

func (HTMLDocumentRenderer) Render(html string) ([]byte, error) {
	return []byte(html), nil
}

const contractTemplate = `<html>
<body>
<h1>Partnership Agreement</h1>
<p>Date: {{.Date}}</p>
<p>This {{.ContractType}} agreement is concluded between:</p>
<ul>
<li>Entrepreneur: {{.EntrepreneurName}} ({{.EntrepreneurEmail}})</li>
<li>Investor: {{.InvestorName}} ({{.InvestorEmail}})</li>
</ul>
<p>Project: {{.ProjectName}} ({{.Sector}})</p>
{{if .IsFinancial}}<p>Investment amount: {{printf "%.2f" .InvestmentAmount}}</p>
<p>Investment type: {{.InvestmentType}}</p>
<p>Payment schedule: {{.PaymentSchedule}}</p>
{{else}}<p>Expertise provided: {{.Expertise}}</p>
<p>Support type: {{.SupportType}}</p>
<p>Support duration: {{.SupportDuration}}</p>
{{end}}</body>
</html>`

var contractTmpl = template.Must(template.New("contract").Parse(contractTemplate))

type contractContext struct {
	Date              string
	ContractType      string
	EntrepreneurName  string
	EntrepreneurEmail string
	InvestorName      string
	InvestorEmail     string
	ProjectName       string
	Sector            string
	IsFinancial       bool
	InvestmentAmount  float64
	InvestmentType    string
	PaymentSchedule   string
	Expertise         string
	SupportType       string
	SupportDuration   string
}

// CreateContractAndCollaboration derives a Contract and a Collaboration
// from an accepted proposal, inside the caller's transaction. The contract
// references exactly the source proposal kind; the collaboration links the
// parties transitively reachable from the proposal's help request.
func CreateContractAndCollaboration(tx *gorm.DB, renderer DocumentRenderer, proposal models.Proposal) (*models.Contract, *models.Collaboration, error) {
	var helpRequest models.HelpRequest
	if err := tx.Preload("Project").Preload("Entrepreneur.User").
		First(&helpRequest, proposal.GetHelpRequestID()).Error; err != nil {
		return nil, nil, fmt.Errorf("loading help request: %w", err)
	}

	var investor models.Investor
	if err := tx.Preload("User").First(&investor, proposal.GetInvestorID()).Error; err != nil {
		return nil, nil, fmt.Errorf("loading investor: %w", err)
	}

	data := contractContext{
		Date:              time.Now().UTC().Format("January 2, 2006"),
		ContractType:      proposal.Kind(),
		EntrepreneurName:  helpRequest.Entrepreneur.FullName(),
		EntrepreneurEmail: helpRequest.Entrepreneur.User.Email,
		InvestorName:      investor.FullName(),
		InvestorEmail:     investor.User.Email,
		ProjectName:       helpRequest.Project.ProjectName,
		Sector:            helpRequest.Project.Sector,
	}
	switch p := proposal.(type) {
	case *models.FinancialProposal:
		data.IsFinancial = true
		data.InvestmentAmount = p.InvestmentAmount
		data.InvestmentType = p.InvestmentType
		data.PaymentSchedule = p.PaymentSchedule
	case *models.TechnicalProposal:
		data.Expertise = p.Expertise
		data.SupportType = p.SupportType
		data.SupportDuration = p.SupportDuration
	}

	var buf bytes.Buffer
	if err := contractTmpl.Execute(&buf, data); err != nil {
		return nil, nil, fmt.Errorf("rendering contract template: %w", err)
	}

	document, err := renderer.Render(buf.String())
	if err != nil {
		return nil, nil, fmt.Errorf("rendering contract document: %w", err)
	}

	contract := &models.Contract{
		ContractType: proposal.Kind(),
		HTMLContent:  buf.String(),
		PDFData:      document,
	}
	proposalID := proposal.GetID()
	if proposal.Kind() == models.ProposalKindFinancial {
		contract.FinancialProposalID = &proposalID
	} else {
		contract.TechnicalProposalID = &proposalID
	}
	if err := tx.Create(contract).Error; err != nil {
		return nil, nil, fmt.Errorf("creating contract: %w", err)
	}

	// Guards against retried calls; the contract is newly created, so a
	// hit here means this decision already went through once.
	var existing models.Collaboration
	err = tx.Where(
		"entrepreneur_id = ? AND investor_id = ? AND project_id = ? AND contract_id = ?",
		helpRequest.EntrepreneurID, investor.ID, helpRequest.ProjectID, contract.ID,
	).First(&existing).Error
	if err == nil {
		return nil, nil, ErrDuplicateCollaboration
	}
	if err != gorm.ErrRecordNotFound {
		return nil, nil, fmt.Errorf("checking for existing collaboration: %w", err)
	}

	collaboration := &models.Collaboration{
		EntrepreneurID:    helpRequest.EntrepreneurID,
		InvestorID:        investor.ID,
		ProjectID:         helpRequest.ProjectID,
		ContractID:        &contract.ID,
		CollaborationType: proposal.Kind(),
		IsActive:          true,
	}
	if err := tx.Create(collaboration).Error; err != nil {
		return nil, nil, fmt.Errorf("creating collaboration: %w", err)
	}

	return contract, collaboration, nil
}

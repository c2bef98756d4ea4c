package finance

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Converter turns an amount in one currency into another.
type Converter interface {
	Convert(amount float64, from, to string) float64
}

// overdueTolerance is how far below the price a service may be paid before
// it counts as overdue.
const overdueTolerance = 1

type Summary struct {
	TotalIncome      float64 `json:"totalIncome"`
	TotalExpenses    float64 `json:"totalExpenses"`
	NetProfit        float64 `json:"netProfit"`
	OverdueAmount    float64 `json:"overdueAmount"`
	PayrollRemaining float64 `json:"payrollRemaining"`
	DisplayCurrency  string  `json:"displayCurrency"`
	Month            int     `json:"month"`
	Year             int     `json:"year"`
}

// SummaryInput is everything Summarize reads. Transactions and Payroll are
// already limited to the period; Payments covers all time.
type SummaryInput struct {
	Month           int
	Year            int
	Today           string
	DisplayCurrency string
	Transactions    []Transaction
	Salaries        []EmployeeSalary
	Payroll         []PayrollPayment
	Services        []BillableService
	Payments        []ClientPayment
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summarize accumulates at full precision and rounds each output once.
func Summarize(in SummaryInput, conv Converter) Summary {
	to := in.DisplayCurrency
	var income, expenses float64
	for _, t := range in.Transactions {
		amount := conv.Convert(t.Amount, t.Currency, to)
		if t.Type == TypeIncome {
			income += amount
		} else {
			expenses += amount
		}
	}

	var expected, paidSalaries float64
	for _, s := range in.Salaries {
		if s.Type == SalaryMonthly && s.Amount != 0 {
			expected += conv.Convert(s.Amount, s.Currency, to)
		}
	}
	for _, p := range in.Payroll {
		paidSalaries += conv.Convert(p.Amount, p.Currency, to)
	}

	var overdue float64
	for _, svc := range in.Services {
		if svc.Price == 0 || svc.Status == "cancelled" {
			continue
		}
		currency := svc.Currency
		if currency == "" {
			currency = "USD"
		}
		price := conv.Convert(svc.Price, currency, to)
		var paid float64
		switch svc.BillingType {
		case "monthly":
			if svc.Status != "active" && svc.Status != "in_progress" {
				continue
			}
			for _, p := range in.Payments {
				if p.ServiceID == svc.ID && p.Month == in.Month && p.Year == in.Year {
					paid += conv.Convert(p.Amount, p.Currency, to)
				}
			}
		default:
			if svc.EndDate == "" || svc.EndDate >= in.Today {
				continue
			}
			for _, p := range in.Payments {
				if p.ServiceID == svc.ID {
					paid += conv.Convert(p.Amount, p.Currency, to)
				}
			}
		}
		if paid < price-overdueTolerance {
			overdue += price - paid
		}
	}

	return Summary{
		TotalIncome:      round2(income),
		TotalExpenses:    round2(expenses),
		NetProfit:        round2(income - expenses),
		OverdueAmount:    round2(overdue),
		PayrollRemaining: round2(expected - paidSalaries),
		DisplayCurrency:  to,
		Month:            in.Month,
		Year:             in.Year,
	}
}

// Summary builds the finance dashboard figures for a month. Zero month or
// year means the current one.
func (s *Service) Summary(ctx context.Context, month, year int, displayCurrency string) (Summary, error) {
	now := s.now()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return Summary{}, ErrInvalidPeriod
	}
	in := SummaryInput{
		Month:           month,
		Year:            year,
		Today:           now.Format(dateLayout),
		DisplayCurrency: s.currency(strings.TrimSpace(displayCurrency)),
	}
	var err error
	if in.Transactions, err = s.Store.ListTransactions(ctx, TransactionFilter{Month: month, Year: year}); err != nil {
		return Summary{}, fmt.Errorf("list transactions: %w", err)
	}
	if in.Salaries, err = s.Store.ListSalaries(ctx); err != nil {
		return Summary{}, fmt.Errorf("list salaries: %w", err)
	}
	if in.Payroll, err = s.Store.ListPayrollPayments(ctx, PayrollFilter{Month: month, Year: year}); err != nil {
		return Summary{}, fmt.Errorf("list payroll: %w", err)
	}
	if in.Services, err = s.Store.BillableServices(ctx); err != nil {
		return Summary{}, fmt.Errorf("list services: %w", err)
	}
	if in.Payments, err = s.Store.ListClientPayments(ctx, PaymentFilter{}); err != nil {
		return Summary{}, fmt.Errorf("list payments: %w", err)
	}
	return Summarize(in, s.converter(ctx)), nil
}

func (s *Service) converter(ctx context.Context) Converter {
	if s.Rates == nil {
		return RateTable{Base: "USD"}
	}
	return s.Rates.Table(ctx)
}

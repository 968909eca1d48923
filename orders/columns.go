// Package orders names the columns, sheets and column roles of the order-status
// workbook and the derived tables built from it.
package orders

import "github.com/ssungjun83/Order-Dashboard/frame"

// Source sheet names.
const (
	SheetOrderStatus = "order_status"
	SheetByItem      = "order_status_by_item"
	SheetMonthly     = "monthly_summary"
	SheetLeadtime    = "summary_by_month"
)

// Detail table columns, as labelled in the source workbook.
const (
	ColMonth     = "월"
	ColType      = "구분"
	ColStatus    = "현재상태"
	ColCountry   = "국가"
	ColOwner     = "담당자"
	ColCustomer  = "고객"
	ColWorkOrder = "작지번호"
	ColProduct   = "품명"
	ColNote      = "생산/포장 특이사항"

	ColOrderQty     = "오더수량"
	ColOrderAmount  = "수주금액"
	ColAmountKRW    = "수주금액(원)"
	ColAmountUSD    = "수주금액(달러)"
	ColLeadtime     = "리드타임(일)"
	ColPackProgress = "포장 진도율"

	ColOrderSent     = "수주 전송일"
	ColSalesRequest  = "영업출고요청일"
	ColFirstShipPlan = "최초출고계획일"
	ColPackExpected  = "포장완료예상일"
	ColPackDone      = "포장완료일"
	ColProdExpected  = "생산완료예상일"

	ColDuePlan  = "납기준수(최초출고계획일)"
	ColDueSales = "납기준수(영업출고요청일)"
)

// Derived columns.
const (
	ColYear        = "연도"
	ColMonthDate   = "__month_date__"
	ColSearchIndex = "__search_key__"
)

// Summary table columns.
const (
	ColWorkOrderCount = "작지건수"
	ColQtyTotal       = "오더수량 합계"
	ColAmountTotal    = "수주금액 합계"
	ColKRWTotal       = "수주금액(원) 합계"
	ColUSDTotal       = "수주금액(달러) 합계"
	ColLeadtimeMean   = "평균 리드타임(일)"
	ColDuePlanRate    = "납기준수율(최초출고계획일)"
)

// Product priority columns.
const (
	ColPriority  = "우선순위"
	ColAvgDemand = "평균수요"
	ColTotalQty  = "총 오더수량"
	ColPOCount   = "PO횟수"
	ColPOStreak  = "연속 PO 횟수"
	ColShare     = "점유율"
)

// Issue ledger columns.
const (
	ColIssueKey   = "__issue_key__"
	ColResolved   = "해결여부"
	ColClosedDate = "종결일"
	ColIssueDate  = "안건상정일"
)

// Monthly and leadtime summary sheet columns.
const (
	ColOrderCount    = "수주건수"
	ColAmountUSDAlt  = "수주금액(USD)"
	ColLeadtimeCount = "리드타임건수"
	ColLeadtimeAvg   = "평균리드타임(일)"
	ColLeadtimeMin   = "최소리드타임(일)"
	ColLeadtimeMax   = "최대리드타임(일)"
)

const (
	// TotalLabel marks the synthetic per-group total row.
	TotalLabel = "합계"
	// DelayedLabel is the due-status value counted against compliance.
	DelayedLabel = "지연"
)

// FacetColumns are the independently selectable filter dimensions, in display order.
var FacetColumns = []string{ColMonth, ColType, ColStatus, ColCountry, ColOwner, ColCustomer}

// RequiredDetailColumns must exist in both detail sheets for a load to succeed.
var RequiredDetailColumns = []string{ColMonth, ColType, ColWorkOrder}

var DetailSchema = frame.Schema{
	ColOrderQty:      frame.RoleNumeric,
	ColOrderAmount:   frame.RoleNumeric,
	ColAmountKRW:     frame.RoleNumeric,
	ColAmountUSD:     frame.RoleNumeric,
	ColLeadtime:      frame.RoleStat,
	ColPackProgress:  frame.RolePercent,
	ColYear:          frame.RoleStat,
	ColOrderSent:     frame.RoleDate,
	ColSalesRequest:  frame.RoleDate,
	ColFirstShipPlan: frame.RoleDate,
	ColPackExpected:  frame.RoleDate,
	ColPackDone:      frame.RoleDate,
	ColProdExpected:  frame.RoleMixedDate,
}

var MonthlySchema = frame.Schema{
	ColOrderCount:   frame.RoleNumeric,
	ColOrderQty:     frame.RoleNumeric,
	ColOrderAmount:  frame.RoleNumeric,
	ColAmountKRW:    frame.RoleNumeric,
	ColAmountUSDAlt: frame.RoleNumeric,
}

var LeadtimeSchema = frame.Schema{
	ColWorkOrderCount: frame.RoleNumeric,
	ColLeadtimeCount:  frame.RoleNumeric,
	ColLeadtimeAvg:    frame.RoleStat,
	ColLeadtimeMin:    frame.RoleStat,
	ColLeadtimeMax:    frame.RoleStat,
}

var SummarySchema = frame.Schema{
	ColYear:           frame.RoleStat,
	ColWorkOrderCount: frame.RoleNumeric,
	ColQtyTotal:       frame.RoleNumeric,
	ColAmountTotal:    frame.RoleNumeric,
	ColKRWTotal:       frame.RoleNumeric,
	ColUSDTotal:       frame.RoleNumeric,
	ColLeadtimeMean:   frame.RoleStat,
	ColDuePlanRate:    frame.RolePercent,
}

var PrioritySchema = frame.Schema{
	ColPriority:  frame.RoleStat,
	ColAvgDemand: frame.RoleStat,
	ColTotalQty:  frame.RoleNumeric,
	ColPOCount:   frame.RoleNumeric,
	ColPOStreak:  frame.RoleStat,
	ColShare:     frame.RolePercent,
}

var LedgerSchema = frame.Schema{
	ColClosedDate: frame.RoleDate,
	ColIssueDate:  frame.RoleDate,
}

// MoveNoteBeforeYear places the note column right before the year column for display.
func MoveNoteBeforeYear(f *frame.Frame) *frame.Frame {
	return f.MoveBefore(ColNote, ColYear)
}

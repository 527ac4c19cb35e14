package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/jarcoal/httpmock"
	"github.com/penny-vault/pv-risk/handler"
	"github.com/penny-vault/pv-risk/router"
	"github.com/spf13/viper"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const oneRowCSV = `date,close,high,low,open,volume,adjClose,adjHigh,adjLow,adjOpen,adjVolume,divCash,splitFactor
2023-01-03,100.5,101.0,99.0,100.0,1000,100.0,100.5,98.5,99.5,1000,0.0,1.0
`

var _ = Describe("Analyze endpoint", func() {
	var app *fiber.App

	BeforeEach(func() {
		httpmock.Activate()

		viper.Set("data.provider", "tiingo")
		viper.Set("tiingo.token", "TEST")

		content, err := os.ReadFile("../data/testdata/aapl.csv")
		Expect(err).To(BeNil())
		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/AAPL/prices?startDate=2023-01-03&endDate=2023-01-09&format=csv&resampleFreq=daily&token=TEST",
			httpmock.NewBytesResponder(200, content))

		content, err = os.ReadFile("../data/testdata/msft.csv")
		Expect(err).To(BeNil())
		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/MSFT/prices?startDate=2023-01-03&endDate=2023-01-09&format=csv&resampleFreq=daily&token=TEST",
			httpmock.NewBytesResponder(200, content))

		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/ONEROW/prices?startDate=2023-01-03&endDate=2023-01-09&format=csv&resampleFreq=daily&token=TEST",
			httpmock.NewStringResponder(200, oneRowCSV))

		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/BOGUS/prices?startDate=2023-01-03&endDate=2023-01-09&format=csv&resampleFreq=daily&token=TEST",
			httpmock.NewStringResponder(404, "Not Found"))

		app = fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		})
		router.SetupRoutes(app)
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	analyze := func(query string) (*http.Response, []byte) {
		req := httptest.NewRequest("GET", "/v1/analyze?"+query, nil)
		resp, err := app.Test(req, -1)
		Expect(err).To(BeNil())
		body, err := io.ReadAll(resp.Body)
		Expect(err).To(BeNil())
		return resp, body
	}

	Context("when a single ticker is requested", func() {
		It("returns all analysis tables", func() {
			resp, body := analyze("tickers=AAPL&startDate=2023-01-03&endDate=2023-01-09")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			analysis := handler.AnalyzeResponse{}
			Expect(json.Unmarshal(body, &analysis)).To(Succeed())

			Expect(analysis.Tickers).To(Equal([]string{"AAPL"}))
			Expect(analysis.Metric).To(Equal("AdjustedClose"))
			Expect(analysis.StartDate).To(Equal("2023-01-03"))
			Expect(analysis.EndDate).To(Equal("2023-01-09"))
			Expect(analysis.ID).NotTo(BeEmpty())
			Expect(analysis.Fingerprint).NotTo(BeEmpty())

			Expect(analysis.Prices).To(HaveLen(5))
			Expect(analysis.Prices[0].Date).To(Equal("2023-01-03"))
			Expect(*analysis.Prices[0].Values["AAPL"]).To(BeNumerically("~", 100.0, 1e-9))

			Expect(analysis.Returns).To(HaveLen(4))
			Expect(analysis.Returns[0].Date).To(Equal("2023-01-04"))
			Expect(*analysis.Returns[0].Values["AAPL"]).To(BeNumerically("~", 0.01, 1e-9))

			Expect(*analysis.Risk["AAPL"]).To(BeNumerically(">", 0))
			Expect(*analysis.Correlation["AAPL"]["AAPL"]).To(BeNumerically("~", 1.0, 1e-9))

			Expect(analysis.Cumulative).To(HaveLen(4))
			Expect(*analysis.Cumulative[3].Values["AAPL"]).To(BeNumerically("~", 1.03, 1e-9))

			Expect(analysis.Simulation).To(BeEmpty())
		})

		It("includes simulated paths when simulate is set", func() {
			resp, body := analyze("tickers=AAPL&startDate=2023-01-03&endDate=2023-01-09&simulate=true")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			analysis := handler.AnalyzeResponse{}
			Expect(json.Unmarshal(body, &analysis)).To(Succeed())

			Expect(analysis.Simulation).To(HaveLen(50))
			for _, path := range analysis.Simulation {
				Expect(path).To(HaveLen(252))
			}
			for _, price := range analysis.Simulation[0] {
				Expect(price).NotTo(BeNil())
				Expect(*price).To(BeNumerically(">", 0))
			}
		})
	})

	Context("when multiple tickers are requested", func() {
		It("computes a full correlation matrix", func() {
			resp, body := analyze("tickers=AAPL,MSFT&startDate=2023-01-03&endDate=2023-01-09")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			analysis := handler.AnalyzeResponse{}
			Expect(json.Unmarshal(body, &analysis)).To(Succeed())

			Expect(analysis.Tickers).To(Equal([]string{"AAPL", "MSFT"}))
			Expect(analysis.Correlation).To(HaveKey("AAPL"))
			Expect(analysis.Correlation).To(HaveKey("MSFT"))
			Expect(*analysis.Correlation["AAPL"]["MSFT"]).To(BeNumerically("~", *analysis.Correlation["MSFT"]["AAPL"], 1e-9))
			Expect(analysis.Risk).To(HaveLen(2))
		})

		It("marks missing quotes as null", func() {
			resp, body := analyze("tickers=AAPL,MSFT&startDate=2023-01-03&endDate=2023-01-09")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			analysis := handler.AnalyzeResponse{}
			Expect(json.Unmarshal(body, &analysis)).To(Succeed())

			Expect(analysis.Prices).To(HaveLen(5))
			Expect(analysis.Prices[3].Date).To(Equal("2023-01-06"))
			Expect(analysis.Prices[3].Values["MSFT"]).To(BeNil())
			Expect(*analysis.Prices[3].Values["AAPL"]).To(BeNumerically("~", 102.0, 1e-9))
		})
	})

	Context("when the requested period has too little data", func() {
		It("responds with not found", func() {
			resp, body := analyze("tickers=ONEROW&startDate=2023-01-03&endDate=2023-01-09")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))

			errResp := handler.ErrorResponse{}
			Expect(json.Unmarshal(body, &errResp)).To(Succeed())
			Expect(errResp.Status).To(Equal("error"))
			Expect(errResp.Message).To(Equal("no data found; please check ticker symbols"))
		})
	})

	Context("when every ticker download fails", func() {
		It("responds with bad request", func() {
			resp, _ := analyze("tickers=BOGUS&startDate=2023-01-03&endDate=2023-01-09")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Context("when the query parameters are invalid", func() {
		It("rejects an unparseable start date", func() {
			resp, _ := analyze("tickers=AAPL&startDate=jan-3&endDate=2023-01-09")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotAcceptable))
		})

		It("rejects an unparseable end date", func() {
			resp, _ := analyze("tickers=AAPL&startDate=2023-01-03&endDate=soon")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotAcceptable))
		})

		It("rejects an invalid simulate flag", func() {
			resp, _ := analyze("tickers=AAPL&startDate=2023-01-03&endDate=2023-01-09&simulate=maybe")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("rejects a start date after the end date", func() {
			resp, body := analyze("tickers=AAPL&startDate=2023-01-09&endDate=2023-01-03")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotAcceptable))

			errResp := handler.ErrorResponse{}
			Expect(json.Unmarshal(body, &errResp)).To(Succeed())
			Expect(errResp.Status).To(Equal("error"))
		})
	})
})
